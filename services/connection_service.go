package services

import (
	"artisan-link/domain"
	"artisan-link/errors"
	"artisan-link/repositories"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

var validate = validator.New()

type IConnectionService interface {
	SendRequest(ngo domain.Identity, req ConnectionRequest) (domain.Connection, error)
	Accept(connectionID uuid.UUID, actorID string) (domain.Connection, error)
	Reject(connectionID uuid.UUID, actorID string) (domain.Connection, error)
	Cancel(connectionID uuid.UUID, actorID string) error
	List(actor domain.Identity, status *domain.ConnectionStatus) ([]domain.Connection, error)
	Get(connectionID uuid.UUID, actorID string) (domain.Connection, error)
}

type ConnectionRequest struct {
	ArtisanID string `json:"artisanId" validate:"required,max=64"`
	Message   string `json:"message" validate:"max=500"`
	Purpose   string `json:"purpose" validate:"max=500"`
}

// ConnectionService owns the request/accept/reject lifecycle of connections.
type ConnectionService struct {
	log         *slog.Logger
	connections repositories.IConnectionRepository
	actors      repositories.IActorRepository
	now         func() time.Time
}

func NewConnectionService(log *slog.Logger, connections repositories.IConnectionRepository,
	actors repositories.IActorRepository) *ConnectionService {
	return &ConnectionService{
		log:         log,
		connections: connections,
		actors:      actors,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SendRequest creates a pending connection from an NGO to an artisan of the directory.
func (s *ConnectionService) SendRequest(ngo domain.Identity, req ConnectionRequest) (domain.Connection, error) {
	if ngo.Role != domain.RoleNGO {
		return domain.Connection{}, fmt.Errorf("%w: only NGOs can send connection requests", errors.ErrForbidden)
	}
	req.ArtisanID = strings.TrimSpace(req.ArtisanID)
	req.Message = strings.TrimSpace(req.Message)
	req.Purpose = strings.TrimSpace(req.Purpose)
	if err := validate.Struct(req); err != nil {
		return domain.Connection{}, fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}

	if err := s.checkArtisan(req.ArtisanID); err != nil {
		return domain.Connection{}, err
	}

	conn := domain.NewConnection(ngo.UserID, req.ArtisanID, req.Message, req.Purpose, s.now())
	if err := s.connections.Create(conn); err != nil {
		return domain.Connection{}, err
	}
	s.log.Info("Connection requested", "connection_id", conn.ID, "ngo_id", conn.NGOID, "artisan_id", conn.ArtisanID)
	return conn, nil
}

func (s *ConnectionService) checkArtisan(artisanID string) error {
	actor, err := s.actors.GetActor(artisanID)
	if err != nil {
		return err
	}
	role, err := actor.DomainRole()
	if err != nil || role != domain.RoleArtisan {
		return fmt.Errorf("%w: artisan %s", errors.ErrNotFound, artisanID)
	}
	return nil
}

func (s *ConnectionService) Accept(connectionID uuid.UUID, actorID string) (domain.Connection, error) {
	conn, err := s.connections.Update(connectionID, func(c *domain.Connection) error {
		return c.Accept(actorID, s.now())
	})
	if err != nil {
		return domain.Connection{}, err
	}
	s.log.Info("Connection accepted", "connection_id", conn.ID, "artisan_id", actorID, "ngo_id", conn.Counterpart(actorID))
	return conn, nil
}

func (s *ConnectionService) Reject(connectionID uuid.UUID, actorID string) (domain.Connection, error) {
	conn, err := s.connections.Update(connectionID, func(c *domain.Connection) error {
		return c.Reject(actorID, s.now())
	})
	if err != nil {
		return domain.Connection{}, err
	}
	s.log.Info("Connection rejected", "connection_id", conn.ID, "artisan_id", actorID, "ngo_id", conn.Counterpart(actorID))
	return conn, nil
}

// Cancel deletes a pending request on behalf of the NGO that sent it.
func (s *ConnectionService) Cancel(connectionID uuid.UUID, actorID string) error {
	err := s.connections.Delete(connectionID, func(c domain.Connection) error {
		return c.CheckCancel(actorID)
	})
	if err != nil {
		return err
	}
	s.log.Info("Connection cancelled", "connection_id", connectionID, "ngo_id", actorID)
	return nil
}

// List returns the connections of the actor on the side its role allows,
// optionally filtered by status, most recent first.
func (s *ConnectionService) List(actor domain.Identity, status *domain.ConnectionStatus) ([]domain.Connection, error) {
	var (
		connections []domain.Connection
		err         error
	)
	switch actor.Role {
	case domain.RoleNGO, domain.RoleArtisan:
		connections, err = s.connections.ListByActor(actor.Role, actor.UserID)
	case domain.RoleUser, domain.RoleAdmin:
		return []domain.Connection{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", errors.ErrUnknownRole, actor.Role)
	}
	if err != nil {
		return nil, err
	}
	if status != nil {
		connections = lo.Filter(connections, func(c domain.Connection, _ int) bool {
			return c.Status == *status
		})
	}
	if connections == nil {
		connections = []domain.Connection{}
	}
	return connections, nil
}

// Get returns a connection to one of its parties. Anyone else gets ErrNotFound,
// so ids of other people's connections cannot be probed.
func (s *ConnectionService) Get(connectionID uuid.UUID, actorID string) (domain.Connection, error) {
	conn, err := s.connections.Get(connectionID)
	if err != nil {
		return domain.Connection{}, err
	}
	if !conn.IsParty(actorID) {
		return domain.Connection{}, fmt.Errorf("%w: connection %s", errors.ErrNotFound, connectionID)
	}
	return conn, nil
}
