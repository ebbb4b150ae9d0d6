package service

import "github.com/bookshelf/bookshelf/internal/model"

// requireCaller rejects requests without an authenticated account.
func requireCaller(callerID int64) error {
	if callerID <= 0 {
		return ErrUnauthenticated
	}
	return nil
}

// OwnsBook allows access only to the caller's own book. A foreign book is
// reported exactly like a missing one so ids of other accounts stay hidden.
func OwnsBook(callerID int64, book *model.Book) error {
	if err := requireCaller(callerID); err != nil {
		return err
	}
	if !book.OwnedBy(callerID) {
		return ErrBookNotFound
	}
	return nil
}

// SameAccount allows self-service operations addressed by account id only
// when the id is the caller's own.
func SameAccount(callerID, targetID int64) error {
	if err := requireCaller(callerID); err != nil {
		return err
	}
	if callerID != targetID {
		return ErrForbidden
	}
	return nil
}
