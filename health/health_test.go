// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusUnhealthyUntilReady(t *testing.T) {
	h := New()

	status, err := h.Status()
	require.NoError(t, err)
	assert.False(t, status.Healthy)
	assert.False(t, status.EngineReady)
	assert.False(t, status.JournalOpen)

	h.EngineReady(true)
	status, err = h.Status()
	require.NoError(t, err)
	assert.False(t, status.Healthy, "journal still closed")

	h.JournalOpen(true)
	status, err = h.Status()
	require.NoError(t, err)
	assert.True(t, status.Healthy)
}

func TestNewEventProgress(t *testing.T) {
	h := New()
	h.EngineReady(true)
	h.JournalOpen(true)

	status, err := h.Status()
	require.NoError(t, err)
	assert.Zero(t, status.EventProgress.LastSeq)
	assert.Nil(t, status.EventProgress.LastTime)

	h.NewEvent(42)

	status, err = h.Status()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), status.EventProgress.LastSeq)
	require.NotNil(t, status.EventProgress.LastTime)
	assert.WithinDuration(t, time.Now(), *status.EventProgress.LastTime, time.Second)

	// a quiet engine stays healthy
	assert.True(t, status.Healthy)
}
