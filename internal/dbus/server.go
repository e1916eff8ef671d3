package dbus

import (
	"context"
	"errors"
	"fmt"

	"github.com/dooshek/cablespeak/internal/logger"
	"github.com/dooshek/cablespeak/internal/session"
	"github.com/dooshek/cablespeak/internal/voices"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	dbusServiceName = "com.cablespeak.Player"
	dbusObjectPath  = "/com/cablespeak/Player"
	dbusInterface   = "com.cablespeak.Player"
	dbusErrorPrefix = dbusInterface + ".Error."
)

// Controller is the part of the session a remote front end drives
type Controller interface {
	Speak(text, voiceLabel string) error
	StopSpeaking() error
	SelectFile(path string) error
	PlayMedia() error
	StopMedia() error
	Status() session.Status
	Voices() *voices.Catalog
}

// StatsSource exposes usage statistics as JSON
type StatsSource interface {
	GetStatsJSON() (string, error)
}

type signalEmitter interface {
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
}

// Server publishes the session on the session bus and forwards session
// notifications as signals. It implements session.Listener.
type Server struct {
	conn    *dbus.Conn
	emitter signalEmitter
	ctrl    Controller
	stats   StatsSource
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewServer creates a D-Bus server; stats may be nil
func NewServer(stats StatsSource) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{stats: stats, ctx: ctx, cancel: cancel}
}

// Attach sets the controller served over the bus. It must be called
// before Start.
func (s *Server) Attach(ctrl Controller) {
	s.ctrl = ctrl
}

// Start starts the D-Bus server
func (s *Server) Start() error {
	if s.ctrl == nil {
		return errors.New("no controller attached")
	}

	var err error
	s.conn, err = dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	reply, err := s.conn.RequestName(dbusServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		s.conn.Close()
		return fmt.Errorf("failed to request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		s.conn.Close()
		return fmt.Errorf("name already taken")
	}

	if err := s.conn.Export(&player{s: s}, dbusObjectPath, dbusInterface); err != nil {
		s.conn.Close()
		return fmt.Errorf("failed to export object: %w", err)
	}

	if err := s.conn.Export(introspect.NewIntrospectable(introspectNode()), dbusObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		s.conn.Close()
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	s.emitter = s.conn
	logger.Infof("🔌 D-Bus service started: %s", dbusServiceName)
	return nil
}

func introspectNode() *introspect.Node {
	str := func(name string) introspect.Arg {
		return introspect.Arg{Name: name, Type: "s", Direction: "in"}
	}
	return &introspect.Node{
		Name: dbusObjectPath,
		Interfaces: []introspect.Interface{{
			Name: dbusInterface,
			Methods: []introspect.Method{
				{Name: "Speak", Args: []introspect.Arg{str("text"), str("voice")}},
				{Name: "StopSpeaking"},
				{Name: "SelectFile", Args: []introspect.Arg{str("path")}},
				{Name: "PlayMedia"},
				{Name: "StopMedia"},
				{
					Name: "GetStatus",
					Args: []introspect.Arg{
						{Name: "state", Type: "s", Direction: "out"},
						{Name: "file", Type: "s", Direction: "out"},
					},
				},
				{
					Name: "ListVoices",
					Args: []introspect.Arg{{Name: "labels", Type: "as", Direction: "out"}},
				},
				{
					Name: "GetStats",
					Args: []introspect.Arg{{Name: "json", Type: "s", Direction: "out"}},
				},
			},
			Signals: []introspect.Signal{
				{Name: "Busy", Args: []introspect.Arg{{Name: "kind", Type: "s"}}},
				{Name: "Idle"},
				{Name: "Error", Args: []introspect.Arg{{Name: "message", Type: "s"}}},
				{Name: "FileSelected", Args: []introspect.Arg{{Name: "name", Type: "s"}}},
			},
		}},
	}
}

// Stop stops the D-Bus server
func (s *Server) Stop() {
	s.cancel()
	if s.conn != nil {
		s.conn.Close()
	}
	logger.Infof("🔌 D-Bus service stopped")
}

// Wait waits for the server context to be cancelled
func (s *Server) Wait() {
	<-s.ctx.Done()
}

func (s *Server) Busy(kind session.Kind) {
	s.emitSignal("Busy", string(kind))
}

func (s *Server) Idle() {
	s.emitSignal("Idle")
}

func (s *Server) Error(message string) {
	s.emitSignal("Error", message)
}

func (s *Server) FileSelected(displayName string) {
	s.emitSignal("FileSelected", displayName)
}

// emitSignal emits a D-Bus signal
func (s *Server) emitSignal(name string, args ...interface{}) {
	if s.emitter == nil {
		logger.Debugf("D-Bus: Not emitting %s - service not started", name)
		return
	}

	err := s.emitter.Emit(dbus.ObjectPath(dbusObjectPath), dbusInterface+"."+name, args...)
	if err != nil {
		logger.Errorf("D-Bus: Failed to emit signal %s", err, name)
	} else {
		logger.Debugf("D-Bus: Emitted signal: %s", name)
	}
}

// player is the exported D-Bus object
type player struct {
	s *Server
}

func (p *player) Speak(text, voice string) *dbus.Error {
	logger.Debugf("D-Bus: Speak called (%d chars, voice %q)", len(text), voice)
	return toDBusError(p.s.ctrl.Speak(text, voice))
}

func (p *player) StopSpeaking() *dbus.Error {
	logger.Debugf("D-Bus: StopSpeaking called")
	return toDBusError(p.s.ctrl.StopSpeaking())
}

func (p *player) SelectFile(path string) *dbus.Error {
	logger.Debugf("D-Bus: SelectFile called: %s", path)
	return toDBusError(p.s.ctrl.SelectFile(path))
}

func (p *player) PlayMedia() *dbus.Error {
	logger.Debugf("D-Bus: PlayMedia called")
	return toDBusError(p.s.ctrl.PlayMedia())
}

func (p *player) StopMedia() *dbus.Error {
	logger.Debugf("D-Bus: StopMedia called")
	return toDBusError(p.s.ctrl.StopMedia())
}

func (p *player) GetStatus() (string, string, *dbus.Error) {
	st := p.s.ctrl.Status()
	return st.State.String(), st.SelectedFile, nil
}

func (p *player) ListVoices() ([]string, *dbus.Error) {
	return p.s.ctrl.Voices().Labels(), nil
}

func (p *player) GetStats() (string, *dbus.Error) {
	if p.s.stats == nil {
		return "{}", nil
	}
	js, err := p.s.stats.GetStatsJSON()
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return js, nil
}

var errorNames = []struct {
	err  error
	name string
}{
	{session.ErrBusy, "Busy"},
	{session.ErrEmptyText, "EmptyText"},
	{session.ErrMissingAsset, "MissingAsset"},
	{session.ErrUnknownVoice, "UnknownVoice"},
	{session.ErrClosed, "Closed"},
}

func toDBusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	for _, e := range errorNames {
		if errors.Is(err, e.err) {
			return dbus.NewError(dbusErrorPrefix+e.name, []interface{}{err.Error()})
		}
	}
	return dbus.MakeFailedError(err)
}
