package mgmt

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/p-blackswan/devteam-agent/internal/conversation"
)

// personaView is the API shape of a persona.
type personaView struct {
	ID           string   `json:"id"`
	DisplayName  string   `json:"display_name"`
	Role         string   `json:"role"`
	Capabilities []string `json:"capabilities"`
	Available    bool     `json:"available"`
}

// stateView is the API shape of a conversation's workflow state.
type stateView struct {
	Conversation       string `json:"conversation"`
	Stage              string `json:"stage"`
	IssueNumber        int    `json:"issue_number,omitempty"`
	BranchName         string `json:"branch_name,omitempty"`
	PRNumber           int    `json:"pr_number,omitempty"`
	LastAgentRole      string `json:"last_agent_role,omitempty"`
	LastFunctionCalled string `json:"last_function_called,omitempty"`
}

func (s *Server) authMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/healthz" {
			return c.Next()
		}
		if s.apiKey == "" {
			return c.Next()
		}

		auth := c.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if auth == "" || token != s.apiKey {
			s.logger.Warn().Str("path", c.Path()).Msg("unauthorized management request")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid API key"})
		}
		return c.Next()
	}
}

func (s *Server) listPersonas(c *fiber.Ctx) error {
	personas := s.registry.All()
	out := make([]personaView, 0, len(personas))
	for _, p := range personas {
		out = append(out, personaView{
			ID:           p.ID,
			DisplayName:  p.DisplayName,
			Role:         string(p.Role),
			Capabilities: p.Capabilities,
			Available:    s.registry.IsAvailable(p.ID),
		})
	}
	return c.JSON(fiber.Map{"personas": out})
}

func (s *Server) setAvailability(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, ok := s.registry.Get(id); !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown persona"})
	}

	var body struct {
		Available bool `json:"available"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	s.registry.SetAvailability(id, body.Available)
	return c.JSON(fiber.Map{"id": id, "available": body.Available})
}

func (s *Server) getState(c *fiber.Ctx) error {
	key := conversation.NewKey(c.Params("channel"), threadParam(c))
	st := s.tracker.Get(key)
	return c.JSON(stateView{
		Conversation:       key.String(),
		Stage:              string(st.Stage),
		IssueNumber:        st.IssueNumber,
		BranchName:         st.BranchName,
		PRNumber:           st.PRNumber,
		LastAgentRole:      string(st.LastAgentRole),
		LastFunctionCalled: st.LastFunctionCalled,
	})
}

func (s *Server) resetState(c *fiber.Ctx) error {
	key := conversation.NewKey(c.Params("channel"), threadParam(c))
	s.tracker.Reset(key)
	return c.JSON(fiber.Map{"conversation": key.String(), "reset": true})
}

// threadParam maps the route's "main" placeholder back to an empty thread.
func threadParam(c *fiber.Ctx) string {
	t := c.Params("thread")
	if t == "main" {
		return ""
	}
	return t
}
