package boltdb_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/keepsafe/pushpipe/queuestore"
	"github.com/keepsafe/pushpipe/queuestore/boltdb"
	"github.com/keepsafe/pushpipe/queuestore/queuestoretest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type FileStore", func() {
	queuestoretest.Declare(
		func(ctx context.Context) (queuestore.Store, func()) {
			dir, err := os.MkdirTemp("", "pushpipe-boltdb-*")
			Expect(err).ShouldNot(HaveOccurred())

			store := &boltdb.FileStore{
				Path: filepath.Join(dir, "queue.boltdb"),
			}

			return store, func() {
				store.Close()
				os.RemoveAll(dir)
			}
		},
	)

	Describe("func Close()", func() {
		It("does nothing if the database was never opened", func() {
			store := &boltdb.FileStore{
				Path: "/nonexistent/queue.boltdb",
			}

			Expect(store.Close()).To(Succeed())
		})
	})
})
