// SPDX-License-Identifier: GPL-3.0-only

package publisher_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/hwbridge/gamepad-bridge/internal/publisher"
	"github.com/hwbridge/gamepad-bridge/internal/report"
	"github.com/hwbridge/gamepad-bridge/internal/store"
	"github.com/hwbridge/gamepad-bridge/internal/store/mocks"
)

func TestPublisher_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mocks.NewMockStore(ctrl)
	ctx := context.Background()

	registered := make(map[string]store.Value)
	mockStore.EXPECT().RegisterNode(ctx, gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, path string, initial store.Value) error {
			registered[path] = initial
			return nil
		},
	).Times(len(report.Fields()) + 2)

	p := publisher.New(mockStore, "devices/gamepad")
	require.NoError(t, p.Register(ctx))

	// One node per field plus connected and full-data
	assert.Len(t, registered, len(report.Fields())+2)
	assert.Equal(t, store.Float(0), registered["devices/gamepad/left-stick/x"])
	assert.Equal(t, store.Bool(false), registered["devices/gamepad/buttons/a"])
	assert.Equal(t, store.String("neutral"), registered["devices/gamepad/dpad"])
	assert.Equal(t, store.Bool(false), registered["devices/gamepad/connected"])
	assert.Equal(t, store.String("no data available"), registered["devices/gamepad/full-data"])
}

func TestPublisher_Register_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mocks.NewMockStore(ctrl)
	ctx := context.Background()

	mockStore.EXPECT().RegisterNode(ctx, gomock.Any(), gomock.Any()).Return(errors.New("bucket gone"))

	p := publisher.New(mockStore, "")
	err := p.Register(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket gone")
}

func TestPublisher_Publish_OnlyChangedFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mocks.NewMockStore(ctrl)
	ctx := context.Background()

	state := report.State{LeftStickX: -1, Buttons: report.ButtonA}
	changed := []report.Field{
		report.FieldLeftStickX,
		report.ButtonField(report.ButtonA),
	}

	mockStore.EXPECT().SetValue(ctx, "devices/gamepad/left-stick/x", store.Float(-1)).Return(nil)
	mockStore.EXPECT().SetValue(ctx, "devices/gamepad/buttons/a", store.Bool(true)).Return(nil)
	mockStore.EXPECT().SetValue(ctx, "devices/gamepad/full-data", store.String(state.String())).Return(nil)

	p := publisher.New(mockStore, "devices/gamepad")
	require.NoError(t, p.Publish(ctx, changed, state))
}

func TestPublisher_Publish_EmptyChangeSet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mocks.NewMockStore(ctrl)

	// No SetValue calls at all, not even full-data
	p := publisher.New(mockStore, "devices/gamepad")
	require.NoError(t, p.Publish(context.Background(), nil, report.State{}))
}

func TestPublisher_Publish_PartialFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mocks.NewMockStore(ctrl)
	ctx := context.Background()

	state := report.State{Buttons: report.ButtonA, DPad: report.DPadN}
	changed := []report.Field{
		report.ButtonField(report.ButtonA),
		report.FieldDPad,
	}

	writeErr := errors.New("write failed")
	mockStore.EXPECT().SetValue(ctx, "devices/gamepad/buttons/a", gomock.Any()).Return(writeErr)
	// The remaining nodes are still published
	mockStore.EXPECT().SetValue(ctx, "devices/gamepad/dpad", store.String("n")).Return(nil)
	mockStore.EXPECT().SetValue(ctx, "devices/gamepad/full-data", gomock.Any()).Return(nil)

	p := publisher.New(mockStore, "devices/gamepad")
	err := p.Publish(ctx, changed, state)

	require.Error(t, err)
	assert.ErrorIs(t, err, writeErr)
	assert.Contains(t, err.Error(), "devices/gamepad/buttons/a", "aggregate error must name the failed node")
}

func TestPublisher_SetConnected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mocks.NewMockStore(ctrl)
	ctx := context.Background()

	mockStore.EXPECT().SetValue(ctx, "devices/gamepad/connected", store.Bool(true)).Return(nil)
	mockStore.EXPECT().SetValue(ctx, "devices/gamepad/connected", store.Bool(false)).Return(nil)

	p := publisher.New(mockStore, "devices/gamepad")
	require.NoError(t, p.SetConnected(ctx, true))
	require.NoError(t, p.SetConnected(ctx, false))
}

func TestPublisher_DefaultRoot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	p := publisher.New(mocks.NewMockStore(ctrl), "")
	assert.Equal(t, publisher.DefaultRoot, p.Root())
}
