package xclaim

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/omeyang/xsnow/pkg/lifecycle/xrun"
	"github.com/omeyang/xsnow/pkg/observability/xlog"
	"github.com/omeyang/xsnow/pkg/util/xsnow"
)

func TestKeepAlive_RenewsUntilFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	lease := NewMockLease(ctrl)

	lost := fmt.Errorf("%w: token mismatch", ErrLeaseLost)
	gomock.InOrder(
		lease.EXPECT().KeepAlive(gomock.Any()).Return(nil).Times(3),
		lease.EXPECT().KeepAlive(gomock.Any()).Return(lost),
	)
	lease.EXPECT().Identity().Return(xsnow.Identity{DatacenterID: 4, WorkerID: 9})

	var buf bytes.Buffer
	logger, _, err := xlog.New().SetOutput(&buf).SetFormat(xlog.FormatJSON).Build()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = KeepAlive(lease, time.Millisecond, logger)(ctx)
	require.ErrorIs(t, err, ErrLeaseLost)

	out := buf.String()
	assert.Contains(t, out, "identity lease keepalive failed")
	assert.Contains(t, out, `"datacenter_id":4`)
	assert.Contains(t, out, `"worker_id":9`)
	assert.Contains(t, out, "token mismatch")
}

func TestKeepAlive_NoCallsBeforeFirstTick(t *testing.T) {
	ctrl := gomock.NewController(t)
	lease := NewMockLease(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := KeepAlive(lease, time.Hour, nil)(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKeepAlive_RejectsNonPositiveInterval(t *testing.T) {
	ctrl := gomock.NewController(t)
	lease := NewMockLease(ctrl)

	for _, interval := range []time.Duration{0, -time.Second} {
		err := KeepAlive(lease, interval, nil)(context.Background())
		assert.ErrorIs(t, err, xrun.ErrInvalidInterval, "interval %s", interval)
	}
}
