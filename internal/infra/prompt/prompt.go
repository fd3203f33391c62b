package prompt

// Startup questions: claim interval and Telegram notifications

import (
	"errors"
	"fmt"

	"hot-claimer/internal/infra/config"

	"github.com/manifoldco/promptui"
)

// UI asks the two startup questions
type UI interface {
	SelectInterval(options []config.IntervalOption, current int) (int, error)
	ConfirmNotify() (bool, error)
}

// Terminal is the promptui implementation
type Terminal struct{}

func (Terminal) SelectInterval(options []config.IntervalOption, current int) (int, error) {
	cursor := 0
	titles := make([]string, len(options))
	for i, opt := range options {
		titles[i] = opt.Title
		if opt.Minutes == current {
			cursor = i
		}
	}

	sel := promptui.Select{
		Label:     "Choose claim interval",
		Items:     titles,
		CursorPos: cursor,
		HideHelp:  true,
	}
	idx, _, err := sel.Run()
	if err != nil {
		return 0, fmt.Errorf("interval selection: %w", err)
	}
	return idx, nil
}

func (Terminal) ConfirmNotify() (bool, error) {
	p := promptui.Prompt{
		Label:     "Use Telegram Bot as Notification",
		IsConfirm: true,
	}
	if _, err := p.Run(); err != nil {
		// "n" or an empty answer comes back as ErrAbort
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, fmt.Errorf("notification prompt: %w", err)
	}
	return true, nil
}

// AskSchedule returns the schedule chosen by the user, starting from defaults
func AskSchedule(ui UI, defaults config.Schedule) (config.Schedule, error) {
	idx, err := ui.SelectInterval(config.IntervalOptions, defaults.IntervalMinutes)
	if err != nil {
		return defaults, err
	}
	if idx < 0 || idx >= len(config.IntervalOptions) {
		return defaults, fmt.Errorf("%w: option %d", config.ErrInvalidInterval, idx)
	}

	notify, err := ui.ConfirmNotify()
	if err != nil {
		return defaults, err
	}

	return config.Schedule{
		IntervalMinutes: config.IntervalOptions[idx].Minutes,
		NotifyEnabled:   notify,
	}, nil
}
