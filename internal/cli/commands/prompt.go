package commands

import (
	"fmt"

	"github.com/manifoldco/promptui"
)

// Prompter asks the user for input in the interactive flow
type Prompter interface {
	Select(label string, items []string) (int, error)
	Input(label, def string, validate func(string) error) (string, error)
	Secret(label string) (string, error)
}

// promptuiPrompter renders prompts on the terminal
type promptuiPrompter struct{}

func (promptuiPrompter) Select(label string, items []string) (int, error) {
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ . | cyan }}",
		Inactive: "  {{ . }}",
		Selected: "{{ . | green }}",
	}

	prompt := promptui.Select{
		Label:     label,
		Items:     items,
		Templates: templates,
		Size:      len(items),
	}

	index, _, err := prompt.Run()
	if err != nil {
		return 0, fmt.Errorf("selection cancelled: %w", err)
	}
	return index, nil
}

func (promptuiPrompter) Input(label, def string, validate func(string) error) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Default:  def,
		Validate: validate,
	}
	return prompt.Run()
}

func (promptuiPrompter) Secret(label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Mask:  '*',
	}
	return prompt.Run()
}
