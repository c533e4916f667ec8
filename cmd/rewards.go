package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/desertthunder/moodmix/internal/formatter"
	"github.com/desertthunder/moodmix/internal/rewards"
	"github.com/desertthunder/moodmix/internal/shared"
	"github.com/urfave/cli/v3"
)

// rewardsLedger is the on-disk habit tracker state.
type rewardsLedger struct {
	State rewards.GameState `json:"state"`
	Tasks []rewards.Task    `json:"tasks"`
}

func (l *rewardsLedger) task(id string) int {
	for i, t := range l.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// loadLedger reads path; a missing file is an empty ledger.
func loadLedger(path string) (*rewardsLedger, error) {
	ledger := &rewardsLedger{Tasks: []rewards.Task{}}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ledger, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rewards state: %w", err)
	}
	if err := json.Unmarshal(data, ledger); err != nil {
		return nil, fmt.Errorf("%w: rewards state %s: %v", shared.ErrInvalidInput, path, err)
	}
	return ledger, nil
}

func saveLedger(path string, ledger *rewardsLedger) error {
	data, err := shared.MarshalJSON(ledger, true)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write rewards state: %w", err)
	}
	return nil
}

func stateFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "state",
		Usage: "Path to the rewards state file",
		Value: "rewards.json",
	}
}

// rewardsCommand exposes the habit tracker arithmetic over a local state file
func rewardsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "rewards",
		Usage: "Track daily habits, streaks and gifts",
		Commands: []*cli.Command{
			{
				Name:   "gifts",
				Usage:  "List redeemable gifts",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.RewardGifts,
			},
			{
				Name:   "balance",
				Usage:  "Show balance and streak",
				Flags:  []cli.Flag{stateFlag(), jsonFlag()},
				Action: r.RewardBalance,
			},
			{
				Name:  "complete",
				Usage: "Toggle a task for today",
				Flags: []cli.Flag{
					stateFlag(),
					&cli.StringFlag{Name: "task", Usage: "Task id", Required: true},
					&cli.StringFlag{Name: "title", Usage: "Title for a new task"},
				},
				Action: r.RewardComplete,
			},
			{
				Name:  "redeem",
				Usage: "Spend kisses on a gift",
				Flags: []cli.Flag{
					stateFlag(),
					&cli.StringFlag{Name: "gift", Usage: "Gift id", Required: true},
				},
				Action: r.RewardRedeem,
			},
		},
	}
}

// RewardGifts lists the default gift store.
func (r *Runner) RewardGifts(ctx context.Context, cmd *cli.Command) error {
	gifts := rewards.DefaultGifts()
	if cmd.Bool("json") {
		return r.writeJSON(gifts, true)
	}
	styles := formatter.Styles()
	for _, g := range gifts {
		r.writePlainln("%s %s", styles.OK(fmt.Sprintf("%-8s %4d", g.ID, g.Cost)), g.Name)
	}
	return nil
}

// RewardBalance prints the stored balance and streak.
func (r *Runner) RewardBalance(ctx context.Context, cmd *cli.Command) error {
	ledger, err := loadLedger(cmd.String("state"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(ledger.State, true)
	}
	return r.writePlainln("%d kisses, %d day streak", ledger.State.Kisses, ledger.State.CurrentStreak)
}

// RewardComplete toggles --task for today, creating it when --title is given.
func (r *Runner) RewardComplete(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("state")
	ledger, err := loadLedger(path)
	if err != nil {
		return err
	}

	id := cmd.String("task")
	i := ledger.task(id)
	if i < 0 {
		title := cmd.String("title")
		if title == "" {
			return fmt.Errorf("%w: unknown task %q, pass --title to create it", shared.ErrMissingArgument, id)
		}
		ledger.Tasks = append(ledger.Tasks, rewards.Task{ID: id, Title: title})
		i = len(ledger.Tasks) - 1
	}

	today, yesterday := rewards.Days(time.Now())
	task, state, reward := rewards.Complete(ledger.Tasks[i], ledger.State, today, yesterday)
	ledger.Tasks[i], ledger.State = task, state

	if err := saveLedger(path, ledger); err != nil {
		return err
	}

	r.logger.Debug("task toggled", "task", id, "completed", task.Completed, "earned", reward.Total())
	if !task.Completed {
		return r.writePlainln("%s unchecked, balance %d", task.Title, state.Kisses)
	}
	return r.writePlainln("%s done: +%d (bonus %d), balance %d, streak %d",
		task.Title, reward.Total(), reward.Bonus, state.Kisses, state.CurrentStreak)
}

// RewardRedeem spends the cost of --gift.
func (r *Runner) RewardRedeem(ctx context.Context, cmd *cli.Command) error {
	gift, ok := rewards.FindGift(cmd.String("gift"))
	if !ok {
		return fmt.Errorf("%w: unknown gift %q", shared.ErrInvalidArgument, cmd.String("gift"))
	}

	path := cmd.String("state")
	ledger, err := loadLedger(path)
	if err != nil {
		return err
	}

	state, err := rewards.Redeem(ledger.State, gift)
	if err != nil {
		return err
	}
	ledger.State = state
	if err := saveLedger(path, ledger); err != nil {
		return err
	}
	return r.writePlainln("Redeemed %s, balance %d", gift.Name, state.Kisses)
}
