// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/marioparaschiv/social-dashboard/internal/logging"
	"github.com/marioparaschiv/social-dashboard/internal/metrics"
	"github.com/marioparaschiv/social-dashboard/internal/models"
)

var (
	// ErrAuthenticationFailed stops an account whose token was rejected.
	ErrAuthenticationFailed = errors.New("gateway: authentication failed")

	// ErrMaxAttempts stops an account that could not reconnect.
	ErrMaxAttempts = errors.New("gateway: maximum connection attempts reached")
)

// Dependencies wires a Connection into the pipeline. Store is required.
type Dependencies struct {
	Store      Store
	Gate       InterestGate
	Fetcher    ObjectFetcher
	Matcher    Matcher
	Dialer     Dialer
	HTTPClient *http.Client
}

// Connection is one account's gateway session.
type Connection struct {
	account int
	token   string
	cfg     Config
	dialer  Dialer
	rest    *RESTClient
	meta    *metadata
	ingest  *ingestor
	log     zerolog.Logger

	// session is only touched by the running event loop.
	session Session

	status    atomic.Pointer[models.AccountStatus]
	reconnect chan struct{}
	now       func() time.Time
}

// NewConnection creates a connection for token. It does nothing until Serve is called.
func NewConnection(account int, token string, cfg Config, deps Dependencies) *Connection {
	cfg = cfg.withDefaults()
	dialer := deps.Dialer
	if dialer == nil {
		dialer = NewWebsocketDialer()
	}

	log := logging.WithComponent("gateway").With().
		Int("account", account).
		Str("token", logging.MaskToken(token, 28)).
		Logger()

	c := &Connection{
		account:   account,
		token:     token,
		cfg:       cfg,
		dialer:    dialer,
		rest:      NewRESTClient(cfg, token, account, deps.HTTPClient),
		meta:      newMetadata(),
		log:       log,
		reconnect: make(chan struct{}, 1),
		now:       time.Now,
	}
	c.ingest = newIngestor(account, cfg, c.meta, c.rest, deps, log)
	c.publishStatus(nil)
	return c
}

// Account returns the account index.
func (c *Connection) Account() int {
	return c.account
}

// REST returns the account's API client.
func (c *Connection) REST() *RESTClient {
	return c.rest
}

// Chats lists the channels known to this account.
func (c *Connection) Chats() []models.ChatRef {
	return c.meta.chats()
}

// Status returns the latest published session snapshot.
func (c *Connection) Status() models.AccountStatus {
	return *c.status.Load()
}

// Reconnect asks the event loop to drop the transport and reconnect immediately.
func (c *Connection) Reconnect() {
	select {
	case c.reconnect <- struct{}{}:
	default:
	}
}

func (c *Connection) String() string {
	return "gateway-" + strconv.Itoa(c.account)
}

// Serve runs the connection until ctx is canceled or the account stops permanently.
func (c *Connection) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan ingestJob, c.cfg.IngestQueue)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.ingest.run(ctx, jobs)
	}()

	err := c.run(ctx, jobs)
	cancel()
	wg.Wait()
	return err
}

func (c *Connection) publishStatus(stopErr error) {
	s := c.session
	st := models.AccountStatus{
		Platform:     models.PlatformDiscord,
		AccountIndex: c.account,
		Account:      logging.MaskToken(c.token, 28),
		State:        s.State,
		Attempts:     s.Attempts,
		Sequence:     s.Sequence,
		Resumable:    s.canResume(c.now(), c.cfg.ResumeThreshold),
	}
	if !s.LastAckAt.IsZero() {
		t := s.LastAckAt
		st.LastAckAt = &t
	}
	if s.User != nil {
		st.User = s.User.Username
	}
	if stopErr != nil {
		st.Stopped = true
		st.StoppedReason = stopErr.Error()
	}
	c.status.Store(&st)
	metrics.GatewayState.WithLabelValues(strconv.Itoa(c.account)).Set(float64(s.State))
}

type dialResult struct {
	gen       uint64
	transport Transport
	err       error
}

type readResult struct {
	gen    uint64
	event  inboundEvent
	seq    int64
	closed *closeInfo
}

// loop holds the event loop's transport and timers.
type loop struct {
	c    *Connection
	s    *Session
	jobs chan<- ingestJob

	gen       uint64
	transport Transport
	dials     chan dialResult
	reads     chan readResult

	heartbeat *time.Ticker
	hello     *time.Timer
	backoff   *time.Timer

	stopErr error
}

func (c *Connection) run(ctx context.Context, jobs chan<- ingestJob) error {
	l := &loop{
		c:     c,
		s:     &c.session,
		jobs:  jobs,
		dials: make(chan dialResult, 4),
		reads: make(chan readResult, 64),
	}
	defer l.teardown()

	l.s.State = models.StateDisconnected
	l.s.Attempts = 0
	l.start(ctx)
	c.publishStatus(nil)

	for {
		select {
		case <-ctx.Done():
			l.closeTransport(CloseNormal, "shutting down")
			l.s.State = models.StateDisconnected
			c.publishStatus(nil)
			return ctx.Err()

		case r := <-l.dials:
			l.onDial(ctx, r)

		case r := <-l.reads:
			if r.gen != l.gen {
				continue
			}
			if r.closed != nil {
				l.onClose(ctx, *r.closed, true)
			} else {
				l.onEvent(ctx, r.event, r.seq)
			}

		case <-tickerC(l.heartbeat):
			l.sendHeartbeat()

		case <-timerC(l.hello):
			l.hello = nil
			l.onHelloTimeout(ctx)

		case <-timerC(l.backoff):
			l.backoff = nil
			if !l.s.shouldAttempt(c.cfg.MaxAttempts) {
				l.stop(ErrMaxAttempts)
				break
			}
			c.log.Info().Int("attempt", l.s.Attempts+1).Msg("Attempting to reconnect")
			l.start(ctx)

		case <-c.reconnect:
			l.forceReconnect(ctx)
		}

		c.publishStatus(l.stopErr)
		if l.stopErr != nil {
			return fmt.Errorf("%w: %w", l.stopErr, suture.ErrDoNotRestart)
		}
	}
}

func tickerC(t *time.Ticker) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

func timerC(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

// start opens a new transport unless one is live or being opened.
func (l *loop) start(ctx context.Context) {
	if l.s.State == models.StateConnected || l.s.State == models.StateConnecting {
		return
	}
	l.closeTransport(CloseNormal, "")

	l.s.Attempts++
	l.s.State = models.StateConnecting
	l.gen++
	gen := l.gen

	url := l.c.cfg.GatewayURL
	dialer := l.c.dialer
	go func() {
		t, err := dialer.Dial(ctx, url)
		select {
		case l.dials <- dialResult{gen: gen, transport: t, err: err}:
		case <-ctx.Done():
			if t != nil {
				_ = t.Close(CloseNormal, "")
			}
		}
	}()
}

func (l *loop) onDial(ctx context.Context, r dialResult) {
	if r.gen != l.gen {
		if r.transport != nil {
			_ = r.transport.Close(CloseNormal, "")
		}
		return
	}
	if r.err != nil {
		l.c.log.Warn().Err(r.err).Int("attempt", l.s.Attempts).Msg("Gateway dial failed")
		l.onClose(ctx, closeInfo{code: CloseAbnormal, reason: r.err.Error()}, false)
		return
	}

	l.transport = r.transport
	go l.readLoop(ctx, l.gen, r.transport)
	l.hello = time.NewTimer(l.c.cfg.HelloTimeout)

	l.c.log.Debug().Msg("Socket opened")
	l.s.State = models.StateConnected
	now := l.c.now()
	if l.s.canResume(now, l.c.cfg.ResumeThreshold) {
		l.resume()
	} else {
		l.identify()
	}
	l.s.LastAckAt = now
}

func (l *loop) readLoop(ctx context.Context, gen uint64, t Transport) {
	for {
		data, err := t.ReadMessage()
		if err != nil {
			info := closeInfoFromError(err)
			select {
			case l.reads <- readResult{gen: gen, closed: &info}:
			case <-ctx.Done():
			}
			return
		}

		ev, seq, err := decodeFrame(data)
		if err != nil {
			l.c.log.Error().Err(err).Msg("Failed to handle frame")
			continue
		}

		select {
		case l.reads <- readResult{gen: gen, event: ev, seq: seq}:
		case <-ctx.Done():
			return
		}
	}
}

func (l *loop) onEvent(ctx context.Context, ev inboundEvent, seq int64) {
	if seq > 0 {
		l.s.Sequence = seq
	}

	switch e := ev.(type) {
	case helloEvent:
		metrics.GatewayFramesReceived.WithLabelValues(OpHello.String()).Inc()
		l.stopHello()
		l.s.HeartbeatInterval = e.interval
		l.startHeartbeat(e.interval)

	case heartbeatAckEvent:
		metrics.GatewayFramesReceived.WithLabelValues(OpHeartbeatAck.String()).Inc()
		metrics.GatewayHeartbeatAcks.WithLabelValues(strconv.Itoa(l.c.account)).Inc()
		l.s.LastAckAt = l.c.now()

	case heartbeatRequestEvent:
		metrics.GatewayFramesReceived.WithLabelValues(OpHeartbeat.String()).Inc()
		l.sendHeartbeat()

	case invalidSessionEvent:
		metrics.GatewayFramesReceived.WithLabelValues(OpInvalidSession.String()).Inc()
		if e.resumable {
			l.resume()
		} else {
			l.identify()
		}

	case reconnectEvent:
		metrics.GatewayFramesReceived.WithLabelValues(OpReconnect.String()).Inc()
		l.forceReconnect(ctx)

	case dispatchEvent:
		metrics.GatewayFramesReceived.WithLabelValues(OpDispatch.String()).Inc()
		metrics.GatewayDispatches.WithLabelValues(dispatchLabel(e.name)).Inc()
		l.onDispatch(ctx, e)

	case unknownEvent:
		metrics.GatewayFramesReceived.WithLabelValues(e.op.String()).Inc()
	}
}

// dispatchLabel bounds metric cardinality to the events the gateway handles.
func dispatchLabel(name string) string {
	switch name {
	case "READY", "RESUMED", "CHANNEL_CREATE", "CHANNEL_UPDATE", "CHANNEL_DELETE",
		"GUILD_CREATE", "GUILD_UPDATE", "GUILD_DELETE",
		"MESSAGE_CREATE", "MESSAGE_UPDATE", "MESSAGE_DELETE":
		return name
	default:
		return "other"
	}
}

func (l *loop) onDispatch(ctx context.Context, e dispatchEvent) {
	switch e.name {
	case "READY":
		var r ready
		if err := json.Unmarshal(e.data, &r); err != nil {
			l.c.log.Error().Err(err).Msg("Failed to decode READY")
			return
		}
		l.s.SessionID = r.SessionID
		user := r.User
		l.s.User = &user
		l.c.meta.loadReady(&r)
		l.s.State = models.StateConnected
		l.s.Attempts = 0
		l.c.log.Info().Str("user", user.Username).Msg("Logged in")

	case "RESUMED":
		l.s.State = models.StateConnected
		l.s.Attempts = 0
		l.c.log.Info().Msg("Logged in by resuming old session")

	case "CHANNEL_CREATE", "CHANNEL_UPDATE":
		var ch Channel
		if err := json.Unmarshal(e.data, &ch); err != nil || ch.ID == "" {
			return
		}
		l.c.meta.putChannel(ch)

	case "CHANNEL_DELETE":
		var ch Channel
		if err := json.Unmarshal(e.data, &ch); err != nil || ch.ID == "" {
			return
		}
		l.c.meta.deleteChannel(ch.ID)

	case "GUILD_CREATE":
		var g Guild
		if err := json.Unmarshal(e.data, &g); err != nil || g.ID == "" {
			return
		}
		l.c.meta.putGuild(g)

	case "GUILD_UPDATE":
		var g Guild
		if err := json.Unmarshal(e.data, &g); err != nil || g.ID == "" {
			return
		}
		l.c.meta.updateGuild(g)

	case "GUILD_DELETE":
		var g Guild
		if err := json.Unmarshal(e.data, &g); err != nil || g.ID == "" {
			return
		}
		l.c.meta.deleteGuild(g.ID)

	case "MESSAGE_CREATE", "MESSAGE_UPDATE":
		var msg Message
		if err := json.Unmarshal(e.data, &msg); err != nil {
			l.c.log.Error().Err(err).Str("event", e.name).Msg("Failed to decode message")
			return
		}
		kind := ingestCreate
		if e.name == "MESSAGE_UPDATE" {
			kind = ingestUpdate
		}
		l.enqueue(ctx, ingestJob{kind: kind, msg: &msg})

	case "MESSAGE_DELETE":
		var del messageDelete
		if err := json.Unmarshal(e.data, &del); err != nil || del.ID == "" {
			return
		}
		l.enqueue(ctx, ingestJob{kind: ingestDelete, del: &del})
	}
}

// enqueue hands a job to the ingest worker. A full queue stalls the loop for
// at most IngestWait, which stays well below any heartbeat interval, before
// the event is dropped.
func (l *loop) enqueue(ctx context.Context, job ingestJob) {
	select {
	case l.jobs <- job:
		return
	default:
	}

	wait := time.NewTimer(l.c.cfg.IngestWait)
	defer wait.Stop()
	select {
	case l.jobs <- job:
	case <-ctx.Done():
	case <-wait.C:
		metrics.MessagesSkipped.WithLabelValues(platform, "queue_full").Inc()
		l.c.log.Warn().Dur("waited", l.c.cfg.IngestWait).Msg("Ingest queue full, dropping message event")
	}
}

func (l *loop) identify() {
	l.c.log.Debug().Msg("Sending IDENTIFY")
	l.s.resetForIdentify()
	l.send(OpIdentify, identifyPayload{Token: l.c.token, Properties: l.c.cfg.SuperProperties})
}

func (l *loop) resume() {
	l.c.log.Info().Msg("Attempting to resume old session")
	l.s.State = models.StateResuming
	l.send(OpResume, resumePayload{Token: l.c.token, SessionID: l.s.SessionID, Seq: l.s.Sequence})
}

func (l *loop) sendHeartbeat() {
	if l.s.State == models.StateConnecting {
		return
	}
	l.send(OpHeartbeat, heartbeatPayload(l.s.Sequence))
	metrics.GatewayHeartbeatsSent.WithLabelValues(strconv.Itoa(l.c.account)).Inc()
}

// send writes one frame. Failures are logged; close handling follows from the reader.
func (l *loop) send(op Opcode, d interface{}) {
	if l.transport == nil {
		return
	}
	data, err := encodeFrame(op, d)
	if err != nil {
		l.c.log.Error().Err(err).Str("op", op.String()).Msg("Failed to encode payload")
		return
	}
	if err := l.transport.WriteMessage(data); err != nil {
		l.c.log.Error().Err(err).Str("op", op.String()).Msg("Failed to send payload")
	}
}

func (l *loop) startHeartbeat(interval time.Duration) {
	l.stopHeartbeat()
	l.heartbeat = time.NewTicker(interval)
}

func (l *loop) stopHeartbeat() {
	if l.heartbeat != nil {
		l.heartbeat.Stop()
		l.heartbeat = nil
	}
}

func (l *loop) stopHello() {
	if l.hello != nil {
		l.hello.Stop()
		l.hello = nil
	}
}

func (l *loop) stopBackoff() {
	if l.backoff != nil {
		l.backoff.Stop()
		l.backoff = nil
	}
}

// closeTransport closes the live transport locally. Reads still in flight from
// it are discarded because the generation moves on.
func (l *loop) closeTransport(code int, reason string) {
	if l.transport == nil {
		return
	}
	if err := l.transport.Close(code, reason); err != nil {
		l.c.log.Debug().Err(err).Msg("Transport close")
	}
	l.transport = nil
	l.gen++
}

func (l *loop) onHelloTimeout(ctx context.Context) {
	reason := fmt.Sprintf("The connection timed out after %s.", l.c.cfg.HelloTimeout)
	l.closeTransport(CloseNormal, reason)
	l.onClose(ctx, closeInfo{code: CloseNormal, reason: reason}, false)
}

// onClose runs close handling. remote is set when the close came from the reader.
func (l *loop) onClose(ctx context.Context, info closeInfo, remote bool) {
	if remote && l.transport != nil {
		_ = l.transport.Close(CloseNormal, "")
		l.transport = nil
		l.gen++
	}
	l.stopHeartbeat()
	l.stopHello()
	l.s.State = models.StateDisconnected

	account := strconv.Itoa(l.c.account)
	metrics.GatewayCloses.WithLabelValues(account, strconv.Itoa(info.code)).Inc()
	l.c.log.Warn().Int("code", info.code).Str("reason", info.reason).Msg("Gateway closed")

	switch info.code {
	case CloseAuthenticationFailed:
		l.c.log.Error().Msg("Invalid token")
		l.stop(ErrAuthenticationFailed)
		return
	case CloseInternalReconnect:
		return
	}

	if !l.s.shouldAttempt(l.c.cfg.MaxAttempts) {
		l.c.log.Error().Int("attempts", l.s.Attempts).Msg("Connection attempts exhausted")
		l.stop(ErrMaxAttempts)
		return
	}

	delay := time.Duration(l.s.Attempts) * l.c.cfg.BackoffUnit
	if delay > 0 {
		l.c.log.Warn().Dur("delay", delay).Msg("Waiting to reconnect")
	}
	metrics.GatewayReconnects.WithLabelValues(account, "backoff").Inc()
	l.stopBackoff()
	l.backoff = time.NewTimer(delay)
}

// forceReconnect drops the transport with the internal reconnect code and starts
// again without backoff. The session is kept for RESUME.
func (l *loop) forceReconnect(ctx context.Context) {
	l.c.log.Info().Msg("Reconnecting socket")
	metrics.GatewayReconnects.WithLabelValues(strconv.Itoa(l.c.account), "requested").Inc()

	l.stopHeartbeat()
	l.stopHello()
	l.stopBackoff()
	l.closeTransport(CloseInternalReconnect, "reconnect")

	l.s.State = models.StateDiscovering
	l.start(ctx)
}

func (l *loop) stop(err error) {
	l.stopBackoff()
	l.stopErr = err
}

func (l *loop) teardown() {
	l.stopHeartbeat()
	l.stopHello()
	l.stopBackoff()
	l.closeTransport(CloseNormal, "")
}
