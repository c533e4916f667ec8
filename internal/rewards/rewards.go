// package rewards implements the streak and reward arithmetic of the habit tracker
//
// All functions are pure: callers pass today's and yesterday's calendar dates
// (see [DateString]) and persist the returned state themselves.
package rewards

import (
	"errors"
	"fmt"
	"time"
)

const (
	BaseReward     = 10 // kisses per completed task
	StreakBonus    = 5  // kisses per streak day
	MaxStreakBonus = 5  // streak days counted toward the bonus
)

var ErrInsufficientBalance = errors.New("insufficient balance")

// GameState is a user's reward balance and streak.
type GameState struct {
	Kisses             int    `json:"kisses"`
	CurrentStreak      int    `json:"currentStreak"`
	LastCompletionDate string `json:"lastCompletionDate,omitempty"` // YYYY-MM-DD
}

// Task is a daily habit.
type Task struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Completed          bool   `json:"completed"`
	LastCompletionDate string `json:"lastCompletionDate,omitempty"` // YYYY-MM-DD
}

// Gift is a redeemable reward.
type Gift struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Cost int    `json:"cost"`
	Icon string `json:"icon"`
}

// StreakResult is the outcome of [StreakUpdate].
type StreakResult struct {
	CurrentStreak     int
	Bonus             int
	StreakIncremented bool
}

// Reward is what a completion earned.
type Reward struct {
	Base  int
	Bonus int
}

// Total returns base plus bonus.
func (r Reward) Total() int { return r.Base + r.Bonus }

// DateString formats t as a local calendar date.
func DateString(t time.Time) string {
	return t.Local().Format(time.DateOnly)
}

// Days returns today's and yesterday's calendar dates for now.
func Days(now time.Time) (today, yesterday string) {
	local := now.Local()
	return DateString(local), DateString(local.AddDate(0, 0, -1))
}

// StreakUpdate computes the streak after a completion on today.
//
// A completion already recorded today changes nothing. One recorded yesterday extends the streak
// and earns StreakBonus per streak day up to MaxStreakBonus days. Anything else restarts at 1.
func StreakUpdate(state GameState, today, yesterday string) StreakResult {
	switch state.LastCompletionDate {
	case today:
		return StreakResult{CurrentStreak: state.CurrentStreak}
	case yesterday:
		streak := state.CurrentStreak + 1
		return StreakResult{
			CurrentStreak:     streak,
			Bonus:             StreakBonus * min(streak, MaxStreakBonus),
			StreakIncremented: true,
		}
	default:
		return StreakResult{CurrentStreak: 1}
	}
}

// Complete toggles task for today and returns the updated task, state and reward.
//
// Toggling a task completed today unchecks it without refund and keeps its completion date.
// Re-checking it on the same day marks it completed again but earns nothing.
func Complete(task Task, state GameState, today, yesterday string) (Task, GameState, Reward) {
	if task.Completed && task.LastCompletionDate == today {
		task.Completed = false
		return task, state, Reward{}
	}

	if task.LastCompletionDate == today {
		task.Completed = true
		return task, state, Reward{}
	}

	streak := StreakUpdate(state, today, yesterday)
	reward := Reward{Base: BaseReward, Bonus: streak.Bonus}

	task.Completed = true
	task.LastCompletionDate = today

	state.Kisses += reward.Total()
	state.CurrentStreak = streak.CurrentStreak
	state.LastCompletionDate = today

	return task, state, reward
}

// Redeem spends gift's cost from the balance.
func Redeem(state GameState, gift Gift) (GameState, error) {
	if gift.Cost < 0 {
		return state, fmt.Errorf("gift %s has negative cost", gift.ID)
	}
	if state.Kisses < gift.Cost {
		return state, fmt.Errorf("%w: %s costs %d, balance is %d", ErrInsufficientBalance, gift.Name, gift.Cost, state.Kisses)
	}
	state.Kisses -= gift.Cost
	return state, nil
}

// CanAfford reports whether the balance covers gift.
func CanAfford(state GameState, gift Gift) bool {
	return state.Kisses >= gift.Cost
}

// DefaultGifts returns the built-in store.
func DefaultGifts() []Gift {
	return []Gift{
		{ID: "dinner", Name: "Home-Cooked Dinner", Cost: 100, Icon: "utensils"},
		{ID: "massage", Name: "Full Body Massage", Cost: 150, Icon: "moon"},
		{ID: "movie", Name: "Movie Night Choice", Cost: 50, Icon: "video"},
	}
}

// FindGift looks up a default gift by id.
func FindGift(id string) (Gift, bool) {
	for _, g := range DefaultGifts() {
		if g.ID == id {
			return g, true
		}
	}
	return Gift{}, false
}
