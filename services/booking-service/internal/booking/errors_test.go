package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/model"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Error{Kind: KindConflict, Message: "slot no longer available"})
	require.ErrorIs(t, err, ErrConflict)
	require.NotErrorIs(t, err, ErrInvalidInput)
	require.Equal(t, KindConflict, KindOf(err))
	require.Equal(t, "slot no longer available", (&Error{Kind: KindConflict, Message: "slot no longer available"}).Error())
}

func TestClassify(t *testing.T) {
	lockTimeout := fmt.Errorf("lock calendar: %w", &pgconn.PgError{Code: "55P03"})
	require.ErrorIs(t, classify(lockTimeout, "x"), ErrUnavailable)

	exclusion := &pgconn.PgError{Code: "23P01"}
	require.ErrorIs(t, classify(exclusion, "x"), ErrConflict)

	require.ErrorIs(t, classify(context.DeadlineExceeded, "x"), ErrUnavailable)
	require.ErrorIs(t, classify(model.ErrNotFound, "x"), ErrNotFound)

	cause := errors.New("syntax error")
	got := classify(cause, "create booking")
	require.ErrorIs(t, got, cause)
	require.Equal(t, Kind(""), KindOf(got))

	already := &Error{Kind: KindForbidden}
	require.Same(t, already, classify(already, "x"))
	require.NoError(t, classify(nil, "x"))
}
