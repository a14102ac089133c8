package webtui

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/gorilla/websocket"
)

// wsMsg is a control frame from the browser. Keystrokes arrive as plain frames.
type wsMsg struct {
	Type string `json:"type"`
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  32 * 1024,
	WriteBufferSize: 32 * 1024,
	CheckOrigin:     sameOrigin,
}

// sameOrigin accepts requests without an Origin header and those whose origin host matches the
// request host.
func sameOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	host := strings.TrimSpace(r.Host)
	return strings.HasSuffix(origin, "://"+host)
}

const (
	relayBufSize = 32 * 1024
	writeTimeout = 10 * time.Second

	// Initial terminal size until the browser sends its first resize frame.
	initialCols = 120
	initialRows = 40
)

// session is one browser terminal: a boardnav child on a pty bridged to a websocket.
type session struct {
	conn *websocket.Conn
	ptmx *os.File
	cmd  *exec.Cmd
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ss, err := s.startSession(conn)
	if err != nil {
		s.log.Warn().Err(err).Msg("start session")
		_ = conn.WriteMessage(websocket.TextMessage, []byte("failed to start session: "+err.Error()))
		return
	}
	defer ss.close()
	pid := ss.cmd.Process.Pid
	s.log.Info().Int("pid", pid).Str("remote", r.RemoteAddr).Msg("session started")

	done := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		done <- ss.relayOutput()
	}()
	go func() {
		defer wg.Done()
		done <- ss.relayInput()
	}()

	select {
	case <-r.Context().Done():
	case err := <-done:
		if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			s.log.Debug().Err(err).Int("pid", pid).Msg("relay stopped")
		}
	}

	// Killing the child ends relayOutput; closing the socket ends relayInput.
	_ = ss.cmd.Process.Kill()
	_ = conn.Close()
	wg.Wait()
	s.log.Info().Int("pid", pid).Msg("session ended")
}

func (s *Server) startSession(conn *websocket.Conn) (*session, error) {
	cmd := exec.Command(s.cfg.Exe, s.cfg.Args...)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color", "COLORTERM=truecolor")

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: initialCols, Rows: initialRows})
	if err != nil {
		return nil, err
	}
	return &session{conn: conn, ptmx: ptmx, cmd: cmd}, nil
}

func (ss *session) close() {
	_ = ss.ptmx.Close()
	_ = ss.cmd.Process.Kill()
	_, _ = ss.cmd.Process.Wait()
}

// relayOutput copies navigator output to the browser as binary frames until the pty closes.
func (ss *session) relayOutput() error {
	buf := make([]byte, relayBufSize)
	for {
		n, err := ss.ptmx.Read(buf)
		if n > 0 {
			if werr := ss.send(buf[:n]); werr != nil {
				return werr
			}
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, os.ErrClosed):
			return nil
		default:
			return err
		}
	}
}

func (ss *session) send(frame []byte) error {
	_ = ss.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return ss.conn.WriteMessage(websocket.BinaryMessage, frame)
}

// relayInput applies control frames and writes keystrokes to the pty until the socket closes.
func (ss *session) relayInput() error {
	for {
		mt, data, err := ss.conn.ReadMessage()
		if err != nil {
			return err
		}
		if m, ok := parseControl(mt, data); ok {
			ss.apply(m)
			continue
		}
		if len(data) == 0 {
			continue
		}
		if _, err := ss.ptmx.Write(data); err != nil {
			return err
		}
	}
}

func (ss *session) apply(m wsMsg) {
	if m.Type != "resize" || m.Cols <= 0 || m.Rows <= 0 {
		return
	}
	_ = pty.Setsize(ss.ptmx, &pty.Winsize{Cols: uint16(m.Cols), Rows: uint16(m.Rows)})
}

// parseControl recognises JSON control frames. They are text frames starting with '{'; anything
// else (or malformed JSON) is terminal input.
func parseControl(mt int, data []byte) (wsMsg, bool) {
	if mt != websocket.TextMessage || len(data) == 0 || data[0] != '{' {
		return wsMsg{}, false
	}
	var m wsMsg
	if err := json.Unmarshal(data, &m); err != nil {
		return wsMsg{}, false
	}
	m.Type = strings.TrimSpace(strings.ToLower(m.Type))
	return m, m.Type != ""
}
