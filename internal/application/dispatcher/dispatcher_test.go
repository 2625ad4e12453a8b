package dispatcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/procureflow/invoiceflow/internal/domain/event"
)

func TestDispatch_CallsHandlersInOrder(t *testing.T) {
	d := NewDispatcher()
	var calls []string

	d.SubscribeNamed(event.TypeInvoiceTransitioned, "first", func(ctx context.Context, evt *event.Event) error {
		calls = append(calls, "first")
		return nil
	})
	d.SubscribeNamed(event.TypeInvoiceTransitioned, "second", func(ctx context.Context, evt *event.Event) error {
		calls = append(calls, "second")
		return nil
	})

	evt := event.New(event.TypeInvoiceTransitioned, "inv-1", nil)
	if err := d.Dispatch(context.Background(), evt); err != nil {
		t.Fatalf("Dispatch() failed: %v", err)
	}

	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("handlers ran as %v, want [first second]", calls)
	}
}

func TestDispatch_ReturnsFirstHandlerError(t *testing.T) {
	d := NewDispatcher()
	wantErr := errors.New("boom")
	var secondRan bool

	d.SubscribeNamed(event.TypeRiskAssessed, "failing", func(ctx context.Context, evt *event.Event) error {
		return wantErr
	})
	d.SubscribeNamed(event.TypeRiskAssessed, "after", func(ctx context.Context, evt *event.Event) error {
		secondRan = true
		return nil
	})

	err := d.Dispatch(context.Background(), event.New(event.TypeRiskAssessed, "inv-1", nil))
	if !errors.Is(err, wantErr) {
		t.Fatalf("Dispatch() error = %v, want wrapped %v", err, wantErr)
	}
	if secondRan {
		t.Error("handlers after a failure should not run")
	}
}

func TestDispatch_IgnoresUnsubscribedTypes(t *testing.T) {
	d := NewDispatcher()
	if err := d.Dispatch(context.Background(), event.New(event.TypeVendorCreated, "v-1", nil)); err != nil {
		t.Errorf("Dispatch() with no handlers should succeed, got %v", err)
	}
}

func TestDispatch_RecoversHandlerPanic(t *testing.T) {
	d := NewDispatcher()
	d.Subscribe(event.TypeInvoiceCreated, func(ctx context.Context, evt *event.Event) error {
		panic("handler bug")
	})

	err := d.Dispatch(context.Background(), event.New(event.TypeInvoiceCreated, "inv-1", nil))
	if err == nil {
		t.Fatal("Dispatch() should surface a recovered panic as error")
	}
}

func TestDispatchAsync_CompletesBeforeClose(t *testing.T) {
	d := NewDispatcher()
	var count atomic.Int32

	d.Subscribe(event.TypeInvoiceTransitioned, func(ctx context.Context, evt *event.Event) error {
		count.Add(1)
		return nil
	})

	for i := 0; i < 10; i++ {
		d.DispatchAsync(context.Background(), event.New(event.TypeInvoiceTransitioned, "inv-1", nil))
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if got := count.Load(); got != 10 {
		t.Errorf("handler ran %d times, want 10", got)
	}
}

func TestDispatchAsync_SurvivesCallerCancellation(t *testing.T) {
	d := NewDispatcher()
	callerDone := make(chan struct{})
	errCh := make(chan error, 1)

	d.SubscribeNamed(event.TypeRiskAssessed, "slow-sink", func(ctx context.Context, evt *event.Event) error {
		<-callerDone
		errCh <- ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	d.DispatchAsync(ctx, event.New(event.TypeRiskAssessed, "inv-1", nil))
	cancel()
	close(callerDone)

	if err := <-errCh; err != nil {
		t.Errorf("handler context reported %v after caller cancel, want nil", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
}

func TestDispatch_AfterCloseFails(t *testing.T) {
	d := NewDispatcher()
	if err := d.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := d.Dispatch(context.Background(), event.New(event.TypeInvoiceCreated, "inv-1", nil)); err == nil {
		t.Error("Dispatch() after Close() should fail")
	}
	if err := d.Close(); err == nil {
		t.Error("second Close() should fail")
	}
}
