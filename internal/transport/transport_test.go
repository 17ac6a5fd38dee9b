package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHandshakeEstablishesBidirectionalConnection(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	a := New[string](1)
	b := New[string](2)
	a.IncludeSeed(b.Address())

	connsA := a.Run(ctx)
	connsB := b.Run(ctx)

	connA := <-connsA
	connB := <-connsB

	sendA, recvA := connA.Split()
	sendB, recvB := connB.Split()

	sendA <- "hello from a"
	require.Equal(t, "hello from a", <-recvB)

	sendB <- "hello from b"
	require.Equal(t, "hello from b", <-recvA)
}

func TestRunClosesConnectionChannelOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	tr := New[string](1)
	conns := tr.Run(ctx)
	cancel()

	_, ok := <-conns
	require.False(t, ok)
}

func TestSymmetricDialProducesExactlyOneConnectionPerSide(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	a := New[int](10)
	b := New[int](20)
	a.IncludeSeed(b.Address())

	connsA := a.Run(ctx)
	connsB := b.Run(ctx)

	<-connsA
	<-connsB

	select {
	case _, ok := <-connsA:
		require.True(t, ok, "channel should not be closed yet")
		t.Fatal("received an unexpected second connection on a")
	case <-time.After(100 * time.Millisecond):
	}
}
