package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/events"
	"github.com/hugo-lorenzo-mato/shockcast/internal/logging"
	"github.com/hugo-lorenzo-mato/shockcast/internal/risk"
)

// CouncilOptions configures the consensus layer.
type CouncilOptions struct {
	Roles             []string
	RoleTimeout       time.Duration
	RefineRate        float64
	AbstentionPenalty float64
	Weights           CategoryWeights
	Publisher         events.Publisher
	Metrics           *MetricsCollector
	Logger            *logging.Logger
}

// DefaultCouncilOptions returns the built-in settings with every role enabled.
func DefaultCouncilOptions() CouncilOptions {
	return CouncilOptions{
		Roles:             append([]string(nil), core.Roles...),
		RoleTimeout:       2 * time.Second,
		RefineRate:        0.5,
		AbstentionPenalty: 0.2,
		Weights:           DefaultWeights(),
	}
}

// Council runs the roles through Dispatched → Collecting → Refining → Synthesized.
type Council struct {
	roles   []Role
	opts    CouncilOptions
	checker *ConsensusChecker
	pub     events.Publisher
	log     *logging.Logger
}

// NewCouncil resolves the configured role names to the built-in roles.
func NewCouncil(opts CouncilOptions) (*Council, error) {
	roles := make([]Role, 0, len(opts.Roles))
	for _, name := range opts.Roles {
		r, ok := BuiltinRole(name)
		if !ok {
			return nil, core.ErrValidation(core.CodeInvalidConfig, fmt.Sprintf("unknown consensus role %q", name))
		}
		roles = append(roles, r)
	}
	return NewCouncilWithRoles(opts, roles...), nil
}

// NewCouncilWithRoles creates a council over arbitrary roles; opts.Roles is ignored.
func NewCouncilWithRoles(opts CouncilOptions, roles ...Role) *Council {
	if opts.RoleTimeout <= 0 {
		opts.RoleTimeout = DefaultCouncilOptions().RoleTimeout
	}
	if opts.Weights.Outlook+opts.Weights.Risks <= 0 {
		opts.Weights = DefaultWeights()
	}
	pub := opts.Publisher
	if pub == nil {
		pub = events.Discard
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	return &Council{
		roles:   roles,
		opts:    opts,
		checker: NewConsensusChecker(opts.Weights),
		pub:     pub,
		log:     log,
	}
}

// RoleNames returns the names of the council's roles in dispatch order.
func (c *Council) RoleNames() []string {
	names := make([]string, len(c.roles))
	for i, r := range c.roles {
		names[i] = r.Name()
	}
	return names
}

type roleSlot struct {
	role    Role
	opinion core.RoleOpinion
	ok      bool
	reason  string
}

// Deliberate runs every role against in and reconciles their opinions. It
// never fails: abstaining roles only raise the returned penalty.
func (c *Council) Deliberate(ctx context.Context, analysisID string, in RoleInput) core.ConsensusOutcome {
	log := c.log.WithAnalysis(analysisID).WithStage(core.StageConsensus)

	state := core.ConsensusState("")
	transition := func(to core.ConsensusState) {
		c.pub.Publish(events.NewConsensusStateEvent(analysisID, string(state), string(to), c.RoleNames()))
		log.Debug("consensus transition", "from", state, "to", to)
		state = to
	}

	transition(core.ConsensusDispatched)
	slots := c.collect(ctx, analysisID, in, log)
	transition(core.ConsensusCollecting)

	var active []int
	var abstained []string
	for i, s := range slots {
		if s.ok {
			active = append(active, i)
			continue
		}
		abstained = append(abstained, s.role.Name())
		c.pub.Publish(events.NewRoleOpinionEvent(analysisID, s.role.Name(), 0, 0, true, false, s.reason))
	}

	total := len(slots)
	if len(active) == 0 {
		transition(core.ConsensusRefining)
		transition(core.ConsensusSynthesized)
		penalty := c.opts.AbstentionPenalty
		if total == 0 {
			penalty = 0
		}
		log.Warn("every consensus role abstained, keeping agent and ensemble output", "roles", total)
		c.pub.PublishPriority(events.NewConsensusSynthesizedEvent(analysisID, 0, penalty, abstained, nil))
		return core.ConsensusOutcome{
			State:     core.ConsensusSynthesized,
			Abstained: abstained,
			Severity:  in.Finding.SeverityAssessment,
			ImpactPct: in.Ensemble.PredictedImpactPct,
			Penalty:   penalty,
			Applied:   false,
		}
	}

	transition(core.ConsensusRefining)
	c.refine(ctx, analysisID, slots, active, log)

	opinions := make([]core.RoleOpinion, 0, len(active)+1)
	for _, i := range active {
		opinions = append(opinions, slots[i].opinion)
	}
	synth, result := c.synthesize(opinions)
	opinions = append(opinions, synth)

	penalty := c.opts.AbstentionPenalty * float64(len(abstained)) / float64(total)
	transition(core.ConsensusSynthesized)
	c.pub.Publish(events.NewRoleOpinionEvent(analysisID, synth.Role, synth.ImpactPct, synth.Severity, false, false, synth.Rationale))
	c.pub.PublishPriority(events.NewConsensusSynthesizedEvent(analysisID, result.Score, penalty, abstained, divergenceDetails(result.Divergences)))

	log.Info("consensus synthesized",
		"impact_pct", synth.ImpactPct,
		"severity", synth.Severity,
		"agreement", result.Score,
		"abstained", len(abstained),
	)

	return core.ConsensusOutcome{
		State:          core.ConsensusSynthesized,
		Opinions:       opinions,
		Abstained:      abstained,
		Severity:       core.ClampSeverity(int(math.Round(synth.Severity))),
		ImpactPct:      synth.ImpactPct,
		AgreementScore: roundTo(result.Score, 4),
		SharedRisks:    result.Agreement["risks"],
		Penalty:        roundTo(penalty, 4),
		Applied:        true,
	}
}

// collect fans the roles out concurrently and waits for all of them.
func (c *Council) collect(ctx context.Context, analysisID string, in RoleInput, log *logging.Logger) []roleSlot {
	slots := make([]roleSlot, len(c.roles))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range c.roles {
		slots[i].role = r
		g.Go(func() error {
			start := time.Now()
			op, err := c.bounded(gctx, func(ctx context.Context) (core.RoleOpinion, error) {
				return r.Opine(ctx, in)
			})
			if err == nil {
				err = checkOpinion(op)
			}
			c.recordRole(r.Name(), RoleRun{Duration: time.Since(start), Abstained: err != nil, TimedOut: isTimeout(err)})
			if err != nil {
				slots[i].reason = err.Error()
				log.WithRole(r.Name()).Warn("role abstained", "reason", err.Error())
				return nil
			}
			op.Role = r.Name()
			slots[i].opinion = op
			slots[i].ok = true
			c.pub.Publish(events.NewRoleOpinionEvent(analysisID, op.Role, op.ImpactPct, op.Severity, false, false, op.Rationale))
			return nil
		})
	}
	_ = g.Wait()
	return slots
}

// refine lets each surviving role revise its opinion in order, seeing the
// latest opinions of its peers.
func (c *Council) refine(ctx context.Context, analysisID string, slots []roleSlot, active []int, log *logging.Logger) {
	if len(active) < 2 {
		return
	}
	for _, i := range active {
		own := slots[i].opinion
		peers := make([]core.RoleOpinion, 0, len(active)-1)
		for _, j := range active {
			if j != i {
				peers = append(peers, slots[j].opinion)
			}
		}

		var revised core.RoleOpinion
		if rf, ok := slots[i].role.(Refiner); ok {
			start := time.Now()
			op, err := c.bounded(ctx, func(ctx context.Context) (core.RoleOpinion, error) {
				return rf.Refine(ctx, own, peers)
			})
			if err == nil {
				err = checkOpinion(op)
			}
			if err != nil {
				c.recordRole(own.Role, RoleRun{Duration: time.Since(start), TimedOut: isTimeout(err)})
				log.WithRole(own.Role).Warn("refinement dropped, keeping opinion", "reason", err.Error())
				continue
			}
			op.Role = own.Role
			revised = op
		} else {
			revised = refineTowardMedian(own, peers, c.opts.RefineRate)
		}

		if revised.ImpactPct == own.ImpactPct && revised.Severity == own.Severity {
			continue
		}
		revised.Revised = true
		slots[i].opinion = revised
		c.recordRole(own.Role, RoleRun{Revised: true})
		c.pub.Publish(events.NewRoleOpinionEvent(analysisID, revised.Role, revised.ImpactPct, revised.Severity, false, true, revised.Rationale))
	}
}

// synthesize combines the opinions deterministically: confidence-weighted
// means for the numbers, Jaccard overlap for the qualitative views.
func (c *Council) synthesize(opinions []core.RoleOpinion) (core.RoleOpinion, ConsensusResult) {
	var wsum, impact, severity, conf float64
	for _, op := range opinions {
		wsum += op.Confidence
	}
	equal := wsum <= 0
	for _, op := range opinions {
		w := op.Confidence
		if equal {
			w = 1
		}
		impact += w * op.ImpactPct
		severity += w * op.Severity
		conf += op.Confidence
	}
	if equal {
		wsum = float64(len(opinions))
	}
	impact /= wsum
	severity /= wsum
	conf /= float64(len(opinions))

	outputs := make([]RoleOutput, len(opinions))
	for i, op := range opinions {
		sev := core.ClampSeverity(int(math.Round(op.Severity)))
		outputs[i] = RoleOutput{
			Role:    op.Role,
			Outlook: []string{fmt.Sprintf("severity %d", sev), string(risk.Level(sev, op.ImpactPct, op.Confidence))},
			Risks:   op.KeyRisks,
		}
	}
	result := c.checker.Evaluate(outputs)

	return core.RoleOpinion{
		Role:       core.RoleSynthesis,
		Severity:   roundTo(severity, 2),
		ImpactPct:  roundTo(impact, 2),
		Confidence: roundTo(conf*result.Score, 4),
		KeyRisks:   result.Agreement["risks"],
		Rationale:  fmt.Sprintf("%d opinions, agreement %.2f", len(opinions), result.Score),
	}, result
}

// bounded runs fn under the role timeout. A role that overruns is abandoned,
// not waited for.
func (c *Council) bounded(ctx context.Context, fn func(context.Context) (core.RoleOpinion, error)) (core.RoleOpinion, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.RoleTimeout)
	defer cancel()

	type result struct {
		op  core.RoleOpinion
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- result{err: core.ErrExecution(core.CodeRoleFailed, fmt.Sprintf("role panicked: %v", p))}
			}
		}()
		op, err := fn(ctx)
		done <- result{op: op, err: err}
	}()

	select {
	case r := <-done:
		return r.op, r.err
	case <-ctx.Done():
		return core.RoleOpinion{}, core.ErrTimeout(fmt.Sprintf("role did not answer within %s", c.opts.RoleTimeout)).WithCause(ctx.Err())
	}
}

func (c *Council) recordRole(role string, run RoleRun) {
	if c.opts.Metrics != nil {
		c.opts.Metrics.RecordRole(role, run)
	}
}

func checkOpinion(op core.RoleOpinion) error {
	if math.IsNaN(op.ImpactPct) || math.IsInf(op.ImpactPct, 0) || math.IsNaN(op.Severity) || math.IsNaN(op.Confidence) {
		return core.ErrExecution(core.CodeRoleFailed, "role returned a non-finite opinion")
	}
	return nil
}

func isTimeout(err error) bool {
	return err != nil && (core.IsCategory(err, core.ErrCatTimeout) || errors.Is(err, context.DeadlineExceeded))
}

func divergenceDetails(ds []Divergence) []events.DivergenceDetail {
	out := make([]events.DivergenceDetail, 0, len(ds))
	for _, d := range ds {
		if d.Category != "risks" {
			continue
		}
		out = append(out, events.DivergenceDetail{
			Role1:        d.Role1,
			Role1Items:   d.Role1Items,
			Role2:        d.Role2,
			Role2Items:   d.Role2Items,
			JaccardScore: d.JaccardScore,
		})
	}
	return out
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
