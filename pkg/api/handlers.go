package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/battind/battind/pkg/events"
	"github.com/battind/battind/pkg/status"
	"github.com/battind/battind/pkg/version"
)

const errNoSnapshot = "no battery status yet"

func (s *Server) latest(c *gin.Context) (status.Snapshot, bool) {
	snap, ok := s.store.Latest()
	if !ok {
		c.IndentedJSON(http.StatusServiceUnavailable, errNoSnapshot)
	}
	return snap, ok
}

func (s *Server) getStatus(c *gin.Context) {
	if snap, ok := s.latest(c); ok {
		c.IndentedJSON(http.StatusOK, snap)
	}
}

func (s *Server) getTitle(c *gin.Context) {
	if snap, ok := s.latest(c); ok {
		c.IndentedJSON(http.StatusOK, snap.Title)
	}
}

func (s *Server) getDetail(c *gin.Context) {
	if snap, ok := s.latest(c); ok {
		c.IndentedJSON(http.StatusOK, snap.Detail)
	}
}

func (s *Server) postRefresh(c *gin.Context) {
	s.refresher.Refresh()
	logrus.Debug("refresh requested over api")
	c.IndentedJSON(http.StatusAccepted, "ok")
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}

// getEvents streams events.SnapshotUpdated as server-sent events. The
// latest snapshot, if any, is sent right away.
func (s *Server) getEvents(c *gin.Context) {
	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeaderNow()

	if snap, ok := s.store.Latest(); ok {
		c.SSEvent(events.SnapshotUpdated, events.SnapshotEvent{Snapshot: snap})
	}
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		}
	})
}
