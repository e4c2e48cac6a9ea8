package status

import (
	"net"

	"github.com/google/uuid"
)

// readBufferSize bounds the single read done per connection; anything the
// peer sends beyond it is ignored.
const readBufferSize = 4096

// okResponse is written verbatim to every peer that sends anything.
var okResponse = []byte("HTTP/1.1 200 OK\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n<html><body>ok</body></html>\r\n")

// startPool starts the fixed set of workers. The pool never grows.
func (h *Handle) startPool() {
	for i := 0; i < h.poolSize; i++ {
		h.group.Go(func() error {
			h.worker(i)
			return nil
		})
	}
}

// worker serves connections from the accept loop until it closes the channel
func (h *Handle) worker(id int) {
	status_logger.Debug("status worker started", "worker_id", id)

	for conn := range h.conns {
		h.serve(id, conn)
	}

	status_logger.Debug("status worker stopping", "worker_id", id)
}

// serve answers one connection and always closes it. No deadline is set, so
// a silent peer holds the worker until it sends or disconnects.
func (h *Handle) serve(workerID int, conn net.Conn) {
	h.busy.Add(1)
	busyWorkers.Inc()
	defer func() {
		h.busy.Add(-1)
		busyWorkers.Dec()
	}()
	defer conn.Close()

	connID := uuid.NewString()
	peer := conn.RemoteAddr().String()
	status_logger.Debug("status connection accepted", "conn_id", connID, "peer", peer, "worker_id", workerID)

	buf := make([]byte, readBufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		connectionErrors.WithLabelValues(stageRead).Inc()
		status_logger.Error("failed to read status request", "conn_id", connID, "peer", peer, "error", err)
		return
	}

	if _, err := conn.Write(okResponse); err != nil {
		connectionErrors.WithLabelValues(stageWrite).Inc()
		status_logger.Error("failed to write status response", "conn_id", connID, "peer", peer, "error", err)
		return
	}

	responsesSent.Inc()
	status_logger.Debug("status response sent", "conn_id", connID, "bytes_read", n)
}
