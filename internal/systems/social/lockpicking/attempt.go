package lockpicking

import (
	"github.com/louisbranch/parley/internal/core/check"
	"github.com/louisbranch/parley/internal/core/dice"
	"github.com/louisbranch/parley/internal/core/modifier"
)

// Status describes what happened to the lock.
type Status string

// Attempt statuses.
const (
	StatusOpened  Status = "opened"
	StatusFailed  Status = "failed"
	StatusJammed  Status = "jammed"
	StatusBlocked Status = "blocked"
)

// Context carries everything a lock attempt needs.
type Context struct {
	Lock      Lock
	Tool      ToolQuality
	Finesse   int
	Skill     int
	Situation []modifier.Entry
}

// ToolsRequired reports whether the attempt cannot proceed without tools.
func (c Context) ToolsRequired() bool {
	return c.Tool == ToolBareHands && c.Lock.BaseDifficulty() >= ToolsRequiredAt
}

// Modifiers assembles the attempt's modifier stack.
func (c Context) Modifiers() (*modifier.Stack, error) {
	stack := &modifier.Stack{}
	if err := stack.Dice(modifier.SourceToolQuality, string(c.Tool), toolDice[c.Tool]); err != nil {
		return nil, err
	}
	if err := stack.Difficulty(modifier.SourceCorruption, string(c.Lock.corruption()), c.Lock.CorruptionPenalty()); err != nil {
		return nil, err
	}
	if c.Lock.Jammed {
		if err := stack.Difficulty(modifier.SourceJammed, "", JamPenalty); err != nil {
			return nil, err
		}
	}
	if err := stack.Difficulty(modifier.SourceAttempts, "", c.Lock.PreviousAttempts); err != nil {
		return nil, err
	}
	for _, entry := range c.Situation {
		if err := stack.Add(entry); err != nil {
			return nil, err
		}
	}
	return stack, nil
}

// DicePool returns the attempt's pool size, floored at zero.
func (c Context) DicePool() int {
	stack, err := c.Modifiers()
	if err != nil {
		return max(0, c.Finesse+c.Skill)
	}
	return modifier.DicePool(c.Finesse+c.Skill, stack)
}

// EffectiveDifficulty returns the stacked lock difficulty.
func (c Context) EffectiveDifficulty() int {
	stack, err := c.Modifiers()
	if err != nil {
		return c.Lock.BaseDifficulty()
	}
	return modifier.Difficulty(c.Lock.BaseDifficulty(), stack)
}

// Result is the immutable outcome of one lock attempt.
type Result struct {
	Status       Status
	Check        check.Result
	Tier         check.Tier
	Difficulty   int
	DicePool     int
	Lock         Lock
	ToolBroken   bool
	Salvage      string
	Modifiers    []modifier.Entry
	NarrativeKey string
}

// Attempt resolves a single lock manipulation check.
//
// Attempts that need tools but have none return a Blocked result without
// rolling. A fumble jams the lock and breaks improvised tools; a failure
// increments the lock's attempt count; a critical success yields salvage.
func Attempt(src dice.Source, ctx Context) (Result, error) {
	if err := ctx.Lock.Validate(); err != nil {
		return Result{}, err
	}
	if _, err := ParseToolQuality(string(ctx.Tool)); err != nil {
		return Result{}, err
	}
	stack, err := ctx.Modifiers()
	if err != nil {
		return Result{}, err
	}
	difficulty := modifier.Difficulty(ctx.Lock.BaseDifficulty(), stack)
	pool := modifier.DicePool(ctx.Finesse+ctx.Skill, stack)

	result := Result{
		Difficulty: difficulty,
		DicePool:   pool,
		Lock:       ctx.Lock,
		Modifiers:  stack.Entries(),
	}
	if ctx.ToolsRequired() {
		result.Status = StatusBlocked
		result.NarrativeKey = "lockpicking.blocked.tools_required"
		return result, nil
	}

	resolved, err := check.Resolve(src, check.Check{
		Pool:               dice.NewPool(pool),
		Difficulty:         difficulty,
		Fumbles:            true,
		PrimaryDieCritical: true,
	})
	if err != nil {
		return Result{}, err
	}
	result.Check = resolved
	result.Tier = resolved.Tier

	switch {
	case resolved.Fumble:
		result.Status = StatusJammed
		result.Lock = ctx.Lock.WithJammed().WithFailedAttempt()
		result.ToolBroken = ctx.Tool == ToolImprovised
		result.NarrativeKey = "lockpicking.fumble.jammed"
	case resolved.Tier == check.TierCriticalSuccess:
		result.Status = StatusOpened
		result.Salvage = ctx.Lock.Salvage()
		result.NarrativeKey = "lockpicking.success.salvage"
	case resolved.Tier.IsSuccess():
		result.Status = StatusOpened
		result.NarrativeKey = "lockpicking.success"
	default:
		result.Status = StatusFailed
		result.Lock = ctx.Lock.WithFailedAttempt()
		result.NarrativeKey = "lockpicking.failure"
	}
	return result, nil
}
