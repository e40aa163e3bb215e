// Package telegram delivers notifications and weekly plans to a Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"meal-planner/internal/notify"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shopping"
)

// Notifier sends Markdown messages to one chat.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// NewNotifier authorizes the bot token against the Telegram API.
func NewNotifier(token string, chatID int64, logger *zap.Logger) (*Notifier, error) {
	return NewNotifierWithEndpoint(token, tgbotapi.APIEndpoint, chatID, logger)
}

// NewNotifierWithEndpoint talks to a custom Bot API endpoint, formatted like tgbotapi.APIEndpoint.
func NewNotifierWithEndpoint(token, endpoint string, chatID int64, logger *zap.Logger) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("telegram bot authorized", zap.String("username", api.Self.UserName))
	return &Notifier{api: api, chatID: chatID, logger: logger}, nil
}

func (n *Notifier) send(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// Notify implements notify.Notifier.
func (n *Notifier) Notify(_ context.Context, msg notify.Message) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s*\n\n%s", escape(msg.Title), escape(msg.Body))
	if msg.Click != "" {
		fmt.Fprintf(&sb, "\n\n%s", msg.Click)
	}
	return n.send(sb.String())
}

// SendWeeklyPlan posts the week's dinners followed by its shopping list.
func (n *Notifier) SendWeeklyPlan(_ context.Context, plan *planner.WeeklyPlan, list shopping.List) error {
	if err := n.send(FormatPlan(plan)); err != nil {
		return err
	}
	if len(list.Items) == 0 {
		return nil
	}
	return n.send(FormatShoppingList(list))
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// FormatPlan renders a plan as a Telegram Markdown message.
func FormatPlan(plan *planner.WeeklyPlan) string {
	var pb strings.Builder
	fmt.Fprintf(&pb, "📅 *Weekly Meal Plan* (%s)\n\n", plan.WeekStart)

	totalPrep := 0
	for _, m := range plan.Meals {
		mark := "⏳"
		if m.Approved {
			mark = "✅"
		}
		fmt.Fprintf(&pb, "%s *%s*: %s%s\n", mark, m.Day, escape(m.AdultRecipe.Name), prepSuffix(m.AdultRecipe))
		totalPrep += m.AdultRecipe.PrepTime
		if !m.SharedMeal {
			fmt.Fprintf(&pb, "   _Kids_: %s%s\n", escape(m.KidsRecipe.Name), prepSuffix(m.KidsRecipe))
			totalPrep += m.KidsRecipe.PrepTime
		}
	}
	if totalPrep > 0 {
		fmt.Fprintf(&pb, "\n⏱ *Total Prep:* %d mins\n", totalPrep)
	}
	return pb.String()
}

func prepSuffix(r recipe.Recipe) string {
	if r.PrepTime <= 0 {
		return ""
	}
	return fmt.Sprintf(" (%d mins)", r.PrepTime)
}

// FormatShoppingList renders the shopping list grouped by category.
func FormatShoppingList(list shopping.List) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n")

	var current recipe.Category = "-"
	for _, item := range list.Items {
		if item.Category != current {
			current = item.Category
			label := string(current)
			if label == "" {
				label = string(recipe.CategoryOther)
			}
			fmt.Fprintf(&sb, "\n*%s*\n", strings.ToUpper(label[:1])+label[1:])
		}
		qty := strings.TrimSpace(item.Amount + " " + item.Unit)
		if qty != "" {
			fmt.Fprintf(&sb, "• %s %s\n", escape(qty), escape(item.Name))
		} else {
			fmt.Fprintf(&sb, "• %s\n", escape(item.Name))
		}
	}
	return sb.String()
}
