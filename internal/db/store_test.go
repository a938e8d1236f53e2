package db_test

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"rollwise/attendance/internal/db"
	"rollwise/attendance/internal/registrar"
)

type storeTestContext struct {
	pool  *pgxpool.Pool
	store *db.Store
	reg   *registrar.Registrar
}

func setupStoreTest(ctx SpecContext) *storeTestContext {
	url := os.Getenv("ROLLWISE_TEST_DATABASE_URL")
	if url == "" {
		Skip("ROLLWISE_TEST_DATABASE_URL not set")
	}
	pool, err := db.NewPool(ctx, url)
	Expect(err).NotTo(HaveOccurred())
	Expect(db.CreateSchema(ctx, pool)).To(Succeed())
	Expect(db.ResetData(ctx, pool)).To(Succeed())

	store := db.NewStore(pool)
	return &storeTestContext{pool: pool, store: store, reg: registrar.New(store, zap.NewNop())}
}

func (tc *storeTestContext) cleanup() {
	if tc != nil && tc.pool != nil {
		tc.pool.Close()
	}
}

var _ = Describe("Postgres store", func() {
	var tc *storeTestContext
	owner := registrar.Owner{UserID: "user-1", Email: "owner@example.com"}

	BeforeEach(func(ctx SpecContext) {
		tc = setupStoreTest(ctx)
	})

	AfterEach(func() {
		tc.cleanup()
	})

	It("creates, lists and deletes events for the owner only", func(ctx SpecContext) {
		ev, err := tc.reg.CreateEvent(ctx, owner, "Standup")
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Restricted).To(BeFalse())

		events, err := tc.reg.ListEvents(ctx, owner)
		Expect(err).NotTo(HaveOccurred())
		Expect(events).To(HaveLen(1))
		Expect(events[0].ID).To(Equal(ev.ID))

		other := registrar.Owner{UserID: "user-2", Email: "owner@example.com"}
		deleted, err := tc.reg.DeleteEvent(ctx, other, ev.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(deleted).To(BeZero())

		deleted, err = tc.reg.DeleteEvent(ctx, owner, ev.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(deleted).To(Equal(int64(1)))
	})

	It("keeps one mark per email and never resets attendance", func(ctx SpecContext) {
		ev, err := tc.reg.CreateEvent(ctx, owner, "Workshop")
		Expect(err).NotTo(HaveOccurred())

		_, err = tc.reg.MarkAttendance(ctx, ev.ID, "Ada", "ada@example.com")
		Expect(err).NotTo(HaveOccurred())
		mark, err := tc.reg.MarkAttendance(ctx, ev.ID, "Ada L.", "ada@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(mark.Name).To(Equal("Ada L."))
		Expect(mark.Attended).To(BeTrue())

		marks, err := tc.reg.AddPeople(ctx, owner, ev.ID, []registrar.Person{{Name: "Ada", Email: "ada@example.com"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(marks[0].Attended).To(BeTrue())

		people, err := tc.reg.OwnPeople(ctx, owner, ev.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(people).To(HaveLen(1))
	})

	It("rejects unregistered emails on restricted events without writing", func(ctx SpecContext) {
		ev, err := tc.reg.CreateEvent(ctx, owner, "Exam")
		Expect(err).NotTo(HaveOccurred())
		restricted, err := tc.reg.ToggleRestricted(ctx, owner, ev.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(restricted).To(BeTrue())

		_, err = tc.reg.MarkAttendance(ctx, ev.ID, "Eve", "eve@example.com")
		Expect(err).To(MatchError(registrar.ErrNotRegistered))

		people, err := tc.reg.OwnPeople(ctx, owner, ev.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(people).To(BeEmpty())
	})

	It("reports a missing event as not found", func(ctx SpecContext) {
		_, err := tc.reg.MarkAttendance(ctx, uuid.NewString(), "Ada", "ada@example.com")
		Expect(err).To(MatchError(registrar.ErrEventNotFound))
	})

	It("serializes concurrent marks into a single row", func(ctx SpecContext) {
		ev, err := tc.reg.CreateEvent(ctx, owner, "Rush")
		Expect(err).NotTo(HaveOccurred())

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer GinkgoRecover()
				_, err := tc.reg.MarkAttendance(ctx, ev.ID, "Ada", "ada@example.com")
				Expect(err).NotTo(HaveOccurred())
			}()
		}
		wg.Wait()

		people, err := tc.reg.OwnPeople(ctx, owner, ev.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(people).To(HaveLen(1))
		Expect(people[0].UpdatedAt).To(BeTemporally("<=", time.Now().UTC()))
	})
})
