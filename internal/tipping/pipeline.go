package tipping

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stage is a step of the tip state machine. Outcome.Stage is the last stage a message
// reached before it became an instruction, was rejected or was ignored.
type Stage int

const (
	StageStart Stage = iota
	StageNormalized
	StageCommandDetected
	StageAmountValid
	StageRecipientsResolved
	StageSenderValid
	StageInstructionReady
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageNormalized:
		return "normalized"
	case StageCommandDetected:
		return "command_detected"
	case StageAmountValid:
		return "amount_valid"
	case StageRecipientsResolved:
		return "recipients_resolved"
	case StageSenderValid:
		return "sender_valid"
	case StageInstructionReady:
		return "instruction_ready"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Status is the terminal state of a message.
type Status int

const (
	StatusIgnored Status = iota
	StatusRejected
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusIgnored:
		return "ignored"
	case StatusRejected:
		return "rejected"
	case StatusReady:
		return "ready"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the result of running one message through the pipeline.
type Outcome struct {
	Status      Status
	Stage       Stage
	Instruction *TipInstruction
	Rejection   *Rejection
}

// Pipeline sequences command detection, amount validation, recipient resolution and
// sender validation. It holds no per-message state and is safe for concurrent use.
type Pipeline struct {
	cfg       Config
	sender    SenderValidator
	notifiers map[Platform]Notifier
	sink      Sink
	logger    *slog.Logger

	now   func() time.Time
	newID func() string
}

// Deps groups the collaborators of a Pipeline.
type Deps struct {
	Accounts  AccountStore
	Node      Node
	Sink      Sink
	Notifiers map[Platform]Notifier
	Logger    *slog.Logger
}

// NewPipeline validates cfg and wires the collaborators.
func NewPipeline(cfg Config, deps Deps) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tipping config: %w", err)
	}
	if deps.Accounts == nil || deps.Node == nil || deps.Sink == nil {
		return nil, fmt.Errorf("tipping pipeline requires an account store, a node and a sink")
	}
	for p := range cfg.Platforms {
		if deps.Notifiers[p] == nil {
			return nil, fmt.Errorf("platform %s has no notifier", p)
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("component", "tip_pipeline")

	return &Pipeline{
		cfg:       cfg,
		sender:    SenderValidator{Accounts: deps.Accounts, Node: deps.Node, Logger: logger},
		notifiers: deps.Notifiers,
		sink:      deps.Sink,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}, nil
}

// Process runs msg through every stage and returns its terminal outcome. It has no side
// effects besides the collaborator calls of the sender validator.
func (p *Pipeline) Process(ctx context.Context, msg *Message) Outcome {
	if msg == nil || msg.Ignored {
		return Outcome{Status: StatusIgnored, Stage: StageStart}
	}

	rules, ok := p.cfg.Platforms[msg.Platform]
	if !ok {
		p.logger.WarnContext(ctx, "Message from unconfigured platform ignored", "platform", msg.Platform)
		return Outcome{Status: StatusIgnored, Stage: StageNormalized}
	}

	cmd, ok := DetectCommand(msg.Tokens, p.cfg.Command, rules)
	if !ok {
		return Outcome{Status: StatusIgnored, Stage: StageNormalized}
	}

	amount, err := ParseAmount(msg.Tokens[cmd.StartingPoint], p.cfg)
	if err != nil {
		return p.rejected(StageCommandDetected, err)
	}

	ctx, cancel := p.callContext(ctx)
	defer cancel()

	recipients, err := rules.Recipients.Resolve(ctx, msg, cmd)
	if err != nil {
		return p.rejected(StageAmountValid, err)
	}
	if len(recipients) == 0 {
		p.logger.DebugContext(ctx, "Tip command without recipients ignored", "platform", msg.Platform, "message_id", msg.ID)
		return Outcome{Status: StatusIgnored, Stage: StageRecipientsResolved}
	}

	count := decimal.NewFromInt(int64(len(recipients)))
	totalRaw := amount.Raw.Mul(count)
	totalText := p.cfg.withCurrency(FormatAmount(amount.Value.Mul(count)))

	acct, err := p.sender.Validate(ctx, msg, totalRaw, totalText, p.cfg.Messages)
	if err != nil {
		return p.rejected(StageRecipientsResolved, err)
	}

	instr := TipInstruction{
		ID:              p.newID(),
		Platform:        msg.Platform,
		SourceMessageID: msg.ID,
		SenderID:        msg.SenderID,
		SenderAccount:   acct.Address,
		Recipients:      recipients,
		Amount:          amount.Value,
		PerRecipientRaw: amount.Raw,
		TotalRaw:        totalRaw,
		CreatedAt:       p.now(),
	}
	return Outcome{Status: StatusReady, Stage: StageInstructionReady, Instruction: &instr}
}

// Handle processes msg and performs the outcome's side effect: one reply for a
// rejection, a sink submission for an instruction, nothing for an ignored message.
func (p *Pipeline) Handle(ctx context.Context, msg *Message) Outcome {
	out := p.Process(ctx, msg)

	switch out.Status {
	case StatusRejected:
		p.reply(ctx, msg, out.Rejection)

	case StatusReady:
		submitCtx, cancel := p.callContext(ctx)
		err := p.sink.Submit(submitCtx, *out.Instruction)
		cancel()
		if err != nil {
			out = p.rejected(StageInstructionReady, fmt.Errorf("failed to submit tip instruction: %w", err))
			p.reply(ctx, msg, out.Rejection)
			return out
		}
		p.logger.InfoContext(ctx, "Tip instruction submitted",
			"instruction_id", out.Instruction.ID,
			"platform", msg.Platform,
			"sender_id", msg.SenderID,
			"recipients", len(out.Instruction.Recipients),
			"total_raw", out.Instruction.TotalRaw.String())
	}

	return out
}

func (p *Pipeline) rejected(stage Stage, err error) Outcome {
	return Outcome{Status: StatusRejected, Stage: stage, Rejection: asRejection(err, p.cfg.Messages)}
}

func (p *Pipeline) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.cfg.CallTimeout)
}

// reply sends the rejection reason to the sender. It runs detached from ctx so a
// deadline hit by an earlier stage does not also swallow the reply.
func (p *Pipeline) reply(ctx context.Context, msg *Message, rej *Rejection) {
	log := p.logger.With("platform", msg.Platform, "message_id", msg.ID, "sender_id", msg.SenderID, "kind", rej.Kind.String())
	if rej.Cause != nil && rej.Kind == KindExternalCallFailure {
		log.ErrorContext(ctx, "Tip failed on an external call", "error", rej.Cause)
	} else {
		log.InfoContext(ctx, "Tip rejected", "reason", rej.Reason)
	}

	replyCtx := context.WithoutCancel(ctx)
	if p.cfg.ReplyTimeout > 0 {
		var cancel context.CancelFunc
		replyCtx, cancel = context.WithTimeout(replyCtx, p.cfg.ReplyTimeout)
		defer cancel()
	}

	if err := p.notifiers[msg.Platform].Reply(replyCtx, msg, rej.Reason); err != nil {
		log.ErrorContext(ctx, "Failed to send rejection reply", "error", err)
	}
}
