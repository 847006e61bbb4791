package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/chatgate/server/internal/admission"
	"codeberg.org/chatgate/server/internal/llm"
	"codeberg.org/chatgate/server/internal/logger"
	"codeberg.org/chatgate/server/internal/sessions"
)

const DefaultUserID = "default_user"

// drives one chat request from admission to a terminal state
type Controller struct {
	history       History
	gate          *admission.Gate
	generator     llm.Generator
	defaultUserID string
	onTransition  func(userID string, from, to State)
}

func NewController(history History, gate *admission.Gate, generator llm.Generator, defaultUserID string) *Controller {
	if defaultUserID == "" {
		defaultUserID = DefaultUserID
	}

	return &Controller{
		history:       history,
		gate:          gate,
		generator:     generator,
		defaultUserID: defaultUserID,
	}
}

// registers a hook observing every state change
func (c *Controller) OnTransition(fn func(userID string, from, to State)) *Controller {
	c.onTransition = fn
	return c
}

// the key a request is stored under
func (c *Controller) ResolveUserID(userID string) string {
	if strings.TrimSpace(userID) == "" {
		return c.defaultUserID
	}

	return userID
}

// Stream waits for an admission slot, relays the generation for req to sink
// and commits the exchange to the session history once it completes.
//
// The returned Result always carries a terminal state. Cancelling ctx is how
// the transport reports that the peer went away.
func (c *Controller) Stream(ctx context.Context, req Request, sink Sink) Result {
	userID := c.ResolveUserID(req.UserID)
	log := logger.FromContext(ctx).With("user_id", userID)

	slot, err := c.gate.Acquire(ctx)
	if err != nil {
		log.Info("client left before admission", "error", err)
		return Result{
			State:  StateDisconnected,
			UserID: userID,
			Err:    fmt.Errorf("%w: %w", ErrClientDisconnected, err),
		}
	}
	defer slot.Release()

	state := StateAdmitted
	c.transition(userID, "", state)

	turns := append(c.history.GetHistory(userID), sessions.Turn{
		Role:    sessions.RoleUser,
		Content: req.Message,
	})

	genCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	fragments := c.generator.Stream(genCtx, turns)

	state = c.advance(userID, state, StateStreaming)

	var response strings.Builder

	finish := func(to State, err error) Result {
		c.advance(userID, state, to)
		return Result{State: to, UserID: userID, Response: response.String(), Err: err}
	}

	for {
		select {
		case <-ctx.Done():
			cancel()
			log.Info("client disconnected during stream", "forwarded_bytes", response.Len())
			return finish(StateDisconnected, fmt.Errorf("%w: %w", ErrClientDisconnected, ctx.Err()))

		case f, ok := <-fragments:
			// a generator closing because we cancelled it is not a completion
			if ctx.Err() != nil {
				cancel()
				log.Info("client disconnected during stream", "forwarded_bytes", response.Len())
				return finish(StateDisconnected, fmt.Errorf("%w: %w", ErrClientDisconnected, ctx.Err()))
			}

			if !ok {
				return c.complete(log, userID, req.Message, &response, sink, finish)
			}

			if f.Err != nil {
				log.Warn("generation failed", "error", f.Err, "forwarded_bytes", response.Len())
				if err := sink.Error(f.Err); err != nil {
					log.Debug("failed to deliver error event", "error", err)
				}
				return finish(StateFailed, f.Err)
			}

			if err := sink.Send(f.Text); err != nil {
				cancel()
				log.Info("stream write failed, treating as disconnect", "error", err)
				return finish(StateDisconnected, fmt.Errorf("%w: %w", ErrClientDisconnected, err))
			}

			response.WriteString(f.Text)
		}
	}
}

// commits the finished exchange, then tells the peer the stream is over
func (c *Controller) complete(
	log *slog.Logger,
	userID, message string,
	response *strings.Builder,
	sink Sink,
	finish func(State, error) Result,
) Result {
	err := c.history.AppendTurns(userID, []sessions.Turn{
		{Role: sessions.RoleUser, Content: message},
		{Role: sessions.RoleAssistant, Content: response.String()},
	})
	if err != nil {
		log.Warn("failed to commit exchange", "error", err)
		if sendErr := sink.Error(err); sendErr != nil {
			log.Debug("failed to deliver error event", "error", sendErr)
		}
		return finish(StateFailed, err)
	}

	if err := sink.Done(); err != nil {
		// the exchange is already committed; the peer just missed the sentinel
		log.Debug("failed to deliver completion event", "error", err)
	}

	log.Info("stream completed", "response_bytes", response.Len())

	return finish(StateCompleted, nil)
}

// Complete runs a generation to its end under the same admission gate and
// returns the concatenated text. history comes from the caller and the
// session store is neither read nor written.
func (c *Controller) Complete(ctx context.Context, message string, history []sessions.Turn) (string, error) {
	slot, err := c.gate.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrClientDisconnected, err)
	}
	defer slot.Release()

	turns := make([]sessions.Turn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, sessions.Turn{Role: sessions.RoleUser, Content: message})

	genCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var response strings.Builder

	for f := range c.generator.Stream(genCtx, turns) {
		if f.Err != nil {
			return "", f.Err
		}
		response.WriteString(f.Text)
	}

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrClientDisconnected, err)
	}

	return response.String(), nil
}

// reports whether err is a generation failure rather than a transport one
func IsProviderError(err error) bool {
	var perr *llm.ProviderError
	return errors.As(err, &perr)
}

func (c *Controller) advance(userID string, from, to State) State {
	c.transition(userID, from, to)
	return to
}

func (c *Controller) transition(userID string, from, to State) {
	if c.onTransition != nil {
		c.onTransition(userID, from, to)
	}
}
