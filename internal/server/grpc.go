package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"strings"

	apperrors "github.com/jianghu-duel/duel-server-go/internal/errors"
	"github.com/jianghu-duel/duel-server-go/internal/game"
	"github.com/jianghu-duel/duel-server-go/internal/game/state"
	"github.com/jianghu-duel/duel-server-go/internal/match"
	"github.com/jianghu-duel/duel-server-go/internal/repository"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "duel.v1.DuelService"

// DuelServiceServer is the gRPC surface of the match service. Requests and
// responses are JSON-shaped structpb.Struct messages.
type DuelServiceServer interface {
	CreateMatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	JoinMatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StartMatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMatchDiff(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListWaitingMatches(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PlayCard(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PassTurn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCatalog(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func unaryHandler(name string, call func(DuelServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(DuelServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(DuelServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// DuelServiceDesc describes the service for grpc.Server.RegisterService.
var DuelServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DuelServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("CreateMatch", DuelServiceServer.CreateMatch),
		unaryHandler("JoinMatch", DuelServiceServer.JoinMatch),
		unaryHandler("StartMatch", DuelServiceServer.StartMatch),
		unaryHandler("GetMatch", DuelServiceServer.GetMatch),
		unaryHandler("GetMatchDiff", DuelServiceServer.GetMatchDiff),
		unaryHandler("ListWaitingMatches", DuelServiceServer.ListWaitingMatches),
		unaryHandler("PlayCard", DuelServiceServer.PlayCard),
		unaryHandler("PassTurn", DuelServiceServer.PassTurn),
		unaryHandler("GetCatalog", DuelServiceServer.GetCatalog),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "duel/v1/duel.proto",
}

// RegisterDuelServiceServer registers srv on s.
func RegisterDuelServiceServer(s grpc.ServiceRegistrar, srv DuelServiceServer) {
	s.RegisterService(&DuelServiceDesc, srv)
}

// duelServer implements DuelServiceServer on top of a match manager.
type duelServer struct {
	logger  *zap.Logger
	matches *match.Manager
}

// NewDuelServer creates the gRPC service.
func NewDuelServer(matches *match.Manager, logger *zap.Logger) DuelServiceServer {
	return &duelServer{logger: logger, matches: matches}
}

type matchView struct {
	ID         string           `json:"id"`
	HostUserID string           `json:"hostUserId"`
	PlayerIDs  []string         `json:"playerIds"`
	Status     string           `json:"status"`
	Version    int              `json:"version"`
	State      *state.GameState `json:"state,omitempty"`
	Checksum   string           `json:"checksum,omitempty"`
}

func toMatchView(m *repository.Match) matchView {
	v := matchView{
		ID:         m.ID,
		HostUserID: m.HostUserID,
		PlayerIDs:  m.PlayerIDs,
		Status:     string(m.Status),
		Version:    m.Version,
		State:      m.State,
	}
	if m.State != nil {
		v.Checksum = game.Checksum(m.State)
	}
	return v
}

type resultView struct {
	Match    matchView         `json:"match"`
	Events   []state.GameEvent `json:"events"`
	Patches  []game.Patch      `json:"patches"`
	Checksum string            `json:"checksum"`
}

func toResultView(r *match.Result) resultView {
	events := r.Events
	if events == nil {
		events = []state.GameEvent{}
	}
	return resultView{
		Match:    toMatchView(r.Match),
		Events:   events,
		Patches:  r.Patches,
		Checksum: r.Checksum,
	}
}

func (s *duelServer) CreateMatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requiredField(req, "userId")
	if err != nil {
		return nil, err
	}
	m, err := s.matches.CreateLobby(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toStruct(toMatchView(m))
}

func (s *duelServer) JoinMatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	matchID, userID, err := matchAndUser(req)
	if err != nil {
		return nil, err
	}
	m, err := s.matches.JoinLobby(ctx, matchID, userID)
	if err != nil {
		return nil, err
	}
	return toStruct(toMatchView(m))
}

func (s *duelServer) StartMatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	matchID, userID, err := matchAndUser(req)
	if err != nil {
		return nil, err
	}
	result, err := s.matches.StartMatch(ctx, matchID, userID)
	if err != nil {
		return nil, err
	}
	return toStruct(toResultView(result))
}

func (s *duelServer) GetMatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	matchID, err := requiredField(req, "matchId")
	if err != nil {
		return nil, err
	}
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return toStruct(toMatchView(m))
}

type diffView struct {
	MatchID  string       `json:"matchId"`
	Version  int          `json:"version"`
	Checksum string       `json:"checksum"`
	Patches  []game.Patch `json:"patches"`
}

// GetMatchDiff answers a polling client that holds sinceVersion.
func (s *duelServer) GetMatchDiff(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	matchID, err := requiredField(req, "matchId")
	if err != nil {
		return nil, err
	}
	since, err := optionalInt(req, "sinceVersion")
	if err != nil {
		return nil, err
	}
	update, err := s.matches.DiffSince(ctx, matchID, since)
	if err != nil {
		return nil, err
	}
	return toStruct(diffView{
		MatchID:  update.MatchID,
		Version:  update.Version,
		Checksum: update.Checksum,
		Patches:  update.Patches,
	})
}

// ListWaitingMatches returns the open lobbies a player can join.
func (s *duelServer) ListWaitingMatches(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	waiting, err := s.matches.ListWaiting(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]matchView, 0, len(waiting))
	for _, m := range waiting {
		views = append(views, toMatchView(m))
	}
	return toStruct(struct {
		Matches []matchView `json:"matches"`
	}{Matches: views})
}

func (s *duelServer) PlayCard(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	matchID, userID, err := matchAndUser(req)
	if err != nil {
		return nil, err
	}
	instanceID, err := requiredField(req, "instanceId")
	if err != nil {
		return nil, err
	}
	result, err := s.matches.PlayCard(ctx, matchID, userID, instanceID)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("card played over gRPC",
		zap.String("match_id", matchID),
		zap.String("user_id", userID),
		zap.Int("version", result.State.Version),
	)
	return toStruct(toResultView(result))
}

func (s *duelServer) PassTurn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	matchID, userID, err := matchAndUser(req)
	if err != nil {
		return nil, err
	}
	result, err := s.matches.PassTurn(ctx, matchID, userID)
	if err != nil {
		return nil, err
	}
	return toStruct(toResultView(result))
}

func (s *duelServer) GetCatalog(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(s.matches.Engine().Catalog().Preload())
}

// ==================== Helper Functions ====================

func requiredField(req *structpb.Struct, key string) (string, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return "", apperrors.Newf(apperrors.CodeInvalidArgument, "%s is required", key)
	}
	str := strings.TrimSpace(v.GetStringValue())
	if str == "" {
		return "", apperrors.Newf(apperrors.CodeInvalidArgument, "%s must be a non-empty string", key)
	}
	return str, nil
}

// optionalInt reads a whole number field, defaulting to 0 when absent.
func optionalInt(req *structpb.Struct, key string) (int, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, nil
	}
	n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, apperrors.Newf(apperrors.CodeInvalidArgument, "%s must be a whole number", key)
	}
	return int(n.NumberValue), nil
}

func matchAndUser(req *structpb.Struct) (string, string, error) {
	matchID, err := requiredField(req, "matchId")
	if err != nil {
		return "", "", err
	}
	userID, err := requiredField(req, "userId")
	if err != nil {
		return "", "", err
	}
	return matchID, userID, nil
}

// toStruct converts a JSON-tagged value into a structpb.Struct.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return structpb.NewStruct(payload)
}

func extractHostFromContext(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != net.Addr(nil) {
		if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
			return host
		}
		return p.Addr.String()
	}
	return "unknown"
}
