// Package dbusservice exposes the watcher on the session bus so shell
// extensions and panels can show the current reading.
package dbusservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/monorkin/soleklart/internal/watch"
)

const (
	dbusName      = "io.stanko.Soleklart"
	dbusPath      = "/io/stanko/Soleklart"
	dbusInterface = "io.stanko.Soleklart"
)

type Watcher interface {
	Snapshot() watch.Snapshot
	TryRefresh(ctx context.Context) bool
	Subscribe() (<-chan watch.Snapshot, func())
}

// Service handles D-Bus communication for the watcher
type Service struct {
	ctx     context.Context
	watcher Watcher
	conn    *dbus.Conn
	logger  *slog.Logger
}

// NewService connects to the session bus, exports the service object and
// claims the well-known name. Refreshes requested over the bus run with ctx.
func NewService(ctx context.Context, watcher Watcher, logger *slog.Logger) (*Service, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	service := &Service{
		ctx:     ctx,
		watcher: watcher,
		conn:    conn,
		logger:  logger,
	}

	err = conn.Export(service, dbus.ObjectPath(dbusPath), dbusInterface)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to export service: %w", err)
	}

	err = conn.Export(introspect.NewIntrospectable(introspection()), dbus.ObjectPath(dbusPath), "org.freedesktop.DBus.Introspectable")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to export introspection: %w", err)
	}

	reply, err := conn.RequestName(dbusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to request bus name: %w", err)
	}

	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, fmt.Errorf("name %s already taken", dbusName)
	}

	return service, nil
}

func introspection() *introspect.Node {
	return &introspect.Node{
		Name: dbusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name: dbusInterface,
				Methods: []introspect.Method{
					{
						Name: "GetState",
						Args: []introspect.Arg{
							{Name: "state", Direction: "out", Type: "s"},
						},
					},
					{
						Name: "GetReading",
						Args: []introspect.Arg{
							{Name: "reading", Direction: "out", Type: "a{sv}"},
						},
					},
					{
						Name: "Refresh",
					},
				},
				Signals: []introspect.Signal{
					{
						Name: "OutputUpdated",
						Args: []introspect.Arg{
							{Name: "reading", Type: "a{sv}"},
						},
					},
				},
			},
		},
	}
}

// GetState returns idle, loading or finished
func (s *Service) GetState() (string, *dbus.Error) {
	return s.watcher.Snapshot().State.String(), nil
}

// GetReading returns the current snapshot
func (s *Service) GetReading() (map[string]dbus.Variant, *dbus.Error) {
	return Payload(s.watcher.Snapshot()), nil
}

// Refresh starts a refresh without waiting for it. Calls made while a
// refresh is running are dropped.
func (s *Service) Refresh() *dbus.Error {
	if !s.watcher.TryRefresh(s.ctx) {
		s.logger.Debug("Refresh already running")
	}
	return nil
}

func (s *Service) EmitOutputUpdated(snapshot watch.Snapshot) error {
	return s.conn.Emit(dbus.ObjectPath(dbusPath), dbusInterface+".OutputUpdated", Payload(snapshot))
}

// Forward emits OutputUpdated for every finished snapshot until ctx is done.
func (s *Service) Forward(ctx context.Context) {
	snapshots, cancel := s.watcher.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-snapshots:
			if !ok {
				return
			}
			if snapshot.State != watch.StateFinished {
				continue
			}
			if err := s.EmitOutputUpdated(snapshot); err != nil {
				s.logger.Error("Failed to emit output update", "error", err)
			}
		}
	}
}

// Payload flattens a snapshot into the a{sv} dictionary sent over the bus.
// Reading fields are present only when the snapshot has a reading.
func Payload(snapshot watch.Snapshot) map[string]dbus.Variant {
	rows := make([]string, 0, len(snapshot.Rows))
	for _, row := range snapshot.Rows {
		rows = append(rows, row.Label+": "+row.Value)
	}

	payload := map[string]dbus.Variant{
		"state":    dbus.MakeVariant(snapshot.State.String()),
		"has_data": dbus.MakeVariant(snapshot.HasData()),
		"rows":     dbus.MakeVariant(rows),
	}
	if !snapshot.UpdatedAt.IsZero() {
		payload["updated_at"] = dbus.MakeVariant(snapshot.UpdatedAt.Unix())
	}

	reading := snapshot.Reading
	if reading == nil {
		return payload
	}

	payload["station_id"] = dbus.MakeVariant(reading.StationID)
	payload["station"] = dbus.MakeVariant(reading.Station)
	payload["component"] = dbus.MakeVariant(reading.Component)
	payload["unit"] = dbus.MakeVariant(reading.Unit)
	payload["value"] = dbus.MakeVariant(reading.Value)
	payload["timestamp"] = dbus.MakeVariant(reading.Timestamp.Unix())
	payload["distance_m"] = dbus.MakeVariant(reading.Distance)
	if location, ok := reading.Location(); ok {
		payload["latitude"] = dbus.MakeVariant(location.Latitude)
		payload["longitude"] = dbus.MakeVariant(location.Longitude)
	}

	return payload
}

// Close closes the D-Bus connection
func (s *Service) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
