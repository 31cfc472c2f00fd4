package borrowsvc_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/OMARxKHALID/LMS-server/model"
	borrowrepo "github.com/OMARxKHALID/LMS-server/repository/borrow"
	borrowsvc "github.com/OMARxKHALID/LMS-server/service/borrow"
)

type repoMock struct {
	insertFn   func(ctx context.Context, b *model.Borrow) error
	getFn      func(ctx context.Context, id int64) (*model.Borrow, error)
	completeFn func(ctx context.Context, id int64, returnedAt time.Time, fine, borrowPrice float64) error
	listFn     func(ctx context.Context) ([]borrowsvc.Record, error)
}

func (m *repoMock) Insert(ctx context.Context, b *model.Borrow) error {
	if m.insertFn == nil {
		b.ID = 1
		return nil
	}
	return m.insertFn(ctx, b)
}

func (m *repoMock) GetByID(ctx context.Context, id int64) (*model.Borrow, error) {
	return m.getFn(ctx, id)
}

func (m *repoMock) Complete(ctx context.Context, id int64, returnedAt time.Time, fine, borrowPrice float64) error {
	if m.completeFn == nil {
		return nil
	}
	return m.completeFn(ctx, id, returnedAt, fine, borrowPrice)
}

func (m *repoMock) ListRecords(ctx context.Context) ([]borrowsvc.Record, error) {
	return m.listFn(ctx)
}

type bookRepoMock struct {
	getFn func(ctx context.Context, id int64) (*model.Book, error)
}

func (m *bookRepoMock) GetByID(ctx context.Context, id int64) (*model.Book, error) {
	return m.getFn(ctx, id)
}

type userRepoMock struct {
	getFn func(ctx context.Context, id int64) (*model.User, error)
}

func (m *userRepoMock) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getFn == nil {
		return &model.User{ID: id}, nil
	}
	return m.getFn(ctx, id)
}

var now = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return now }

func newService(r *repoMock, book *model.Book) borrowsvc.Service {
	br := &bookRepoMock{getFn: func(ctx context.Context, id int64) (*model.Book, error) {
		if book == nil {
			return nil, sql.ErrNoRows
		}
		return book, nil
	}}
	return borrowsvc.NewWithClock(r, br, &userRepoMock{}, fixedClock)
}

func TestBorrow_InvalidDate(t *testing.T) {
	s := newService(&repoMock{}, &model.Book{ID: 2, AvailableCopies: 1})

	_, err := s.Borrow(context.Background(), 1, 2, time.Time{})
	require.Equal(t, borrowsvc.ErrInvalidDate, borrowsvc.Code(err))

	_, err = s.Borrow(context.Background(), 1, 2, now.AddDate(0, 0, -1))
	require.Equal(t, borrowsvc.ErrInvalidDate, borrowsvc.Code(err))

	_, err = s.Borrow(context.Background(), 1, 2, now)
	require.Equal(t, borrowsvc.ErrInvalidDate, borrowsvc.Code(err))
}

func TestBorrow_UserNotFound(t *testing.T) {
	ur := &userRepoMock{getFn: func(ctx context.Context, id int64) (*model.User, error) {
		return nil, sql.ErrNoRows
	}}
	br := &bookRepoMock{getFn: func(ctx context.Context, id int64) (*model.Book, error) {
		return &model.Book{ID: 2, AvailableCopies: 1}, nil
	}}
	s := borrowsvc.NewWithClock(&repoMock{}, br, ur, fixedClock)

	_, err := s.Borrow(context.Background(), 1, 2, now.AddDate(0, 0, 5))
	require.Equal(t, borrowsvc.ErrUserNotFound, borrowsvc.Code(err))
}

func TestBorrow_BookNotFound(t *testing.T) {
	s := newService(&repoMock{}, nil)
	_, err := s.Borrow(context.Background(), 1, 2, now.AddDate(0, 0, 5))
	require.Equal(t, borrowsvc.ErrBookNotFound, borrowsvc.Code(err))
}

func TestBorrow_NoStock(t *testing.T) {
	s := newService(&repoMock{}, &model.Book{ID: 2, AvailableCopies: 0})
	_, err := s.Borrow(context.Background(), 1, 2, now.AddDate(0, 0, 5))
	require.Equal(t, borrowsvc.ErrNoStock, borrowsvc.Code(err))
}

func TestBorrow_RepoConflicts(t *testing.T) {
	book := &model.Book{ID: 2, AvailableCopies: 1, BorrowPrice: 3}

	s := newService(&repoMock{insertFn: func(ctx context.Context, b *model.Borrow) error {
		return borrowrepo.ErrNoStock
	}}, book)
	_, err := s.Borrow(context.Background(), 1, 2, now.AddDate(0, 0, 5))
	require.Equal(t, borrowsvc.ErrNoStock, borrowsvc.Code(err))

	s = newService(&repoMock{insertFn: func(ctx context.Context, b *model.Borrow) error {
		return borrowrepo.ErrDuplicateBorrow
	}}, book)
	_, err = s.Borrow(context.Background(), 1, 2, now.AddDate(0, 0, 5))
	require.Equal(t, borrowsvc.ErrDuplicateBorrow, borrowsvc.Code(err))
}

func TestBorrow_PriceQuote(t *testing.T) {
	book := &model.Book{ID: 2, AvailableCopies: 3, BorrowPrice: 3, Price: 120}
	var captured *model.Borrow
	r := &repoMock{insertFn: func(ctx context.Context, b *model.Borrow) error {
		captured = b
		b.ID = 7
		return nil
	}}
	s := newService(r, book)

	// 10 whole days
	out, err := s.Borrow(context.Background(), 1, 2, now.AddDate(0, 0, 10))
	require.NoError(t, err)
	require.Equal(t, int64(7), out.ID)
	require.Equal(t, 30.0, captured.TotalBorrowPrice)
	require.Equal(t, 120.0, captured.TotalPrice)
	require.Equal(t, model.BorrowOpen, captured.Status)
	require.Equal(t, now, captured.BorrowedDate)

	// partial days count in full: 5 days and 6 hours -> 6 days
	_, err = s.Borrow(context.Background(), 1, 2, now.Add(5*24*time.Hour+6*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 18.0, captured.TotalBorrowPrice)
}

func openBorrow(price float64, borrowed, expected time.Time) *model.Borrow {
	return &model.Borrow{
		ID:                 5,
		BorrowedBy:         1,
		BorrowedBook:       2,
		BorrowedDate:       borrowed,
		ExpectedReturnDate: expected,
		Status:             model.BorrowOpen,
		TotalBorrowPrice:   price,
	}
}

func TestReturn_OnTime(t *testing.T) {
	borrow := openBorrow(100, now.AddDate(0, 0, -10), now)
	var gotFine, gotPrice float64
	r := &repoMock{
		getFn: func(ctx context.Context, id int64) (*model.Borrow, error) { return borrow, nil },
		completeFn: func(ctx context.Context, id int64, returnedAt time.Time, fine, price float64) error {
			gotFine, gotPrice = fine, price
			return nil
		},
	}
	s := newService(r, &model.Book{ID: 2, BorrowFine: 2})

	out, err := s.Return(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, 0.0, gotFine)
	require.Equal(t, 100.0, gotPrice)
	require.Equal(t, model.BorrowReturned, out.Status)
	require.NotNil(t, out.ReturnDate)
	require.False(t, out.ReturnDate.Before(out.BorrowedDate))
	require.Equal(t, 0.0, out.TotalBorrowedFine)
}

func TestReturn_ThreeDaysLate(t *testing.T) {
	// due three days ago, per-day fine of 2 -> fine of 6
	borrow := openBorrow(100, now.AddDate(0, 0, -13), now.AddDate(0, 0, -3))
	var gotFine, gotPrice float64
	r := &repoMock{
		getFn: func(ctx context.Context, id int64) (*model.Borrow, error) { return borrow, nil },
		completeFn: func(ctx context.Context, id int64, returnedAt time.Time, fine, price float64) error {
			gotFine, gotPrice = fine, price
			return nil
		},
	}
	s := newService(r, &model.Book{ID: 2, BorrowFine: 2})

	out, err := s.Return(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, 6.0, gotFine)
	require.Equal(t, 100.0, gotPrice) // no refund on a late return
	require.Equal(t, 106.0, out.TotalPricePaid())
}

func TestReturn_TwoDaysEarly(t *testing.T) {
	// 10-day loan for 100, returned 2 days early -> proportional refund of 20
	borrow := openBorrow(100, now.AddDate(0, 0, -8), now.AddDate(0, 0, 2))
	var gotFine, gotPrice float64
	r := &repoMock{
		getFn: func(ctx context.Context, id int64) (*model.Borrow, error) { return borrow, nil },
		completeFn: func(ctx context.Context, id int64, returnedAt time.Time, fine, price float64) error {
			gotFine, gotPrice = fine, price
			return nil
		},
	}
	s := newService(r, &model.Book{ID: 2, BorrowFine: 2})

	out, err := s.Return(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, 0.0, gotFine)
	require.Equal(t, 80.0, gotPrice)
	require.Equal(t, 80.0, out.TotalBorrowPrice)
}

func TestReturn_AlreadyReturned(t *testing.T) {
	returned := now.AddDate(0, 0, -1)
	borrow := openBorrow(100, now.AddDate(0, 0, -10), now)
	borrow.Status = model.BorrowReturned
	borrow.ReturnDate = &returned

	r := &repoMock{getFn: func(ctx context.Context, id int64) (*model.Borrow, error) { return borrow, nil }}
	s := newService(r, &model.Book{ID: 2})

	_, err := s.Return(context.Background(), 5)
	require.Equal(t, borrowsvc.ErrAlreadyReturned, borrowsvc.Code(err))
}

func TestReturn_LostSettleRace(t *testing.T) {
	borrow := openBorrow(100, now.AddDate(0, 0, -10), now)
	r := &repoMock{
		getFn: func(ctx context.Context, id int64) (*model.Borrow, error) { return borrow, nil },
		completeFn: func(ctx context.Context, id int64, returnedAt time.Time, fine, price float64) error {
			return borrowrepo.ErrNotOpen
		},
	}
	s := newService(r, &model.Book{ID: 2})

	_, err := s.Return(context.Background(), 5)
	require.Equal(t, borrowsvc.ErrAlreadyReturned, borrowsvc.Code(err))
}

func TestReturn_NotFound(t *testing.T) {
	r := &repoMock{getFn: func(ctx context.Context, id int64) (*model.Borrow, error) {
		return nil, sql.ErrNoRows
	}}
	s := newService(r, &model.Book{ID: 2})

	_, err := s.Return(context.Background(), 99)
	require.Equal(t, borrowsvc.ErrNotFound, borrowsvc.Code(err))
}

func TestReturn_DanglingBook(t *testing.T) {
	borrow := openBorrow(100, now.AddDate(0, 0, -10), now)
	r := &repoMock{getFn: func(ctx context.Context, id int64) (*model.Borrow, error) { return borrow, nil }}
	s := newService(r, nil)

	_, err := s.Return(context.Background(), 5)
	require.Equal(t, borrowsvc.ErrBookNotFound, borrowsvc.Code(err))
}
