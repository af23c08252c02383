package workers

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fixedStats struct{ sockets, rooms int }

func (s fixedStats) Stats() (int, int) { return s.sockets, s.rooms }

type fixedRestarts map[string]int

func (r fixedRestarts) Restarts() map[string]int { return r }

func TestHeartbeatWorker_Keeps_Latest_Sample(t *testing.T) {
	req := require.New(t)
	worker := NewHeartbeatWorker(slog.Default(), fixedStats{sockets: 3, rooms: 2},
		fixedRestarts{"RoomDispatcher": 1}, 10*time.Millisecond)

	// Given no tick happened yet
	req.Zero(worker.Latest().Pid)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req.NoError(worker.Run(ctx))

	// Then the last sample describes this process
	latest := worker.Latest()
	req.Equal(os.Getpid(), latest.Pid)
	req.Equal(3, latest.Sockets)
	req.Equal(2, latest.Rooms)
	req.Equal(map[string]int{"RoomDispatcher": 1}, latest.Restarts)
	req.Positive(latest.RamBytes)
	req.Positive(latest.Goroutines)
}
