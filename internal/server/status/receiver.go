package status

import (
	stderrors "errors"
	"net"

	"golang.org/x/time/rate"
)

// acceptErrorRate caps how often a failing Accept is retried, per second
const acceptErrorRate = 10

// acceptLoop hands every accepted connection to the pool. The send blocks
// while all workers are busy, so later peers wait in the kernel backlog.
func (h *Handle) acceptLoop() error {
	defer close(h.conns)

	limiter := rate.NewLimiter(rate.Limit(acceptErrorRate), 1)

	for {
		conn, err := h.listener.Accept()
		if err != nil {
			// Check if the listener was closed
			if stderrors.Is(err, net.ErrClosed) {
				status_logger.Debug("status accept loop stopping due to closed listener")
				return nil
			}

			connectionErrors.WithLabelValues(stageAccept).Inc()
			status_logger.Error("failed to accept status connection", "error", err)
			// Wait only fails once Close cancelled ctx; the next Accept
			// then reports the closed listener.
			_ = limiter.Wait(h.ctx)
			continue
		}

		connectionsAccepted.Inc()
		h.conns <- conn
	}
}
