// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpcfetch

import (
	"context"
	"errors"
	"testing"

	"github.com/luxfi/geth"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/poolsync/poolerrs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestFetcher_FilterLogs_SucceedsFirstTry(t *testing.T) {
	ctrl := gomock.NewController(t)
	mt := NewMockTransport(ctrl)
	want := []types.Log{{BlockNumber: 10}}
	mt.EXPECT().FilterLogs(gomock.Any(), gomock.Any()).Return(want, nil)

	f := New(mt, Config{RequestsPerSecond: 1000, MaxAttempts: 3}, nil)
	got, err := f.FilterLogs(context.Background(), ethereum.FilterQuery{})
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestFetcher_FilterLogs_RetriesTransientThenSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	mt := NewMockTransport(ctrl)
	want := []types.Log{{BlockNumber: 42}}
	gomock.InOrder(
		mt.EXPECT().FilterLogs(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout")),
		mt.EXPECT().FilterLogs(gomock.Any(), gomock.Any()).Return(want, nil),
	)

	f := New(mt, Config{RequestsPerSecond: 1000, MaxAttempts: 3}, nil)
	got, err := f.FilterLogs(context.Background(), ethereum.FilterQuery{})
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestFetcher_FilterLogs_ExhaustsRetriesReturnsProviderError(t *testing.T) {
	ctrl := gomock.NewController(t)
	mt := NewMockTransport(ctrl)
	mt.EXPECT().FilterLogs(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom")).MinTimes(2)

	f := New(mt, Config{RequestsPerSecond: 1000, MaxAttempts: 2}, nil)
	_, err := f.FilterLogs(context.Background(), ethereum.FilterQuery{})
	require.Error(t, err)
	var pe *poolerrs.ProviderError
	require.True(t, errors.As(err, &pe))
}

func TestFetcher_BlockNumber(t *testing.T) {
	ctrl := gomock.NewController(t)
	mt := NewMockTransport(ctrl)
	mt.EXPECT().BlockNumber(gomock.Any()).Return(uint64(100), nil)

	f := New(mt, Config{RequestsPerSecond: 1000}, nil)
	n, err := f.BlockNumber(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(100), n)
}
