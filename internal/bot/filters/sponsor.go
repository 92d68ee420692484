// Package filters содержит фильтры доступа к боту.
// sponsor.go проверяет обязательную подписку на спонсорские каналы:
// пока пользователь не подписан на все, функции бота закрыты.
package filters

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"almazbot.ru/diamond-bot/internal/features/rewards"
)

// SponsorLister отдаёт список обязательных спонсорских каналов.
type SponsorLister interface {
	RequiredSponsors(ctx context.Context) ([]*rewards.Sponsor, error)
}

// SponsorGate проверяет подписку на обязательные каналы.
type SponsorGate struct {
	enabled  bool
	sponsors SponsorLister
	bot      *tgbotapi.BotAPI
}

// NewSponsorGate создаёт фильтр обязательных подписок.
func NewSponsorGate(enabled bool, sponsors SponsorLister, bot *tgbotapi.BotAPI) *SponsorGate {
	return &SponsorGate{enabled: enabled, sponsors: sponsors, bot: bot}
}

// Missing возвращает каналы, на которые пользователь ещё не подписан.
// При ошибке Telegram API канал считается неподписанным: лучше лишний раз
// попросить подписку, чем раздать доступ мимо спонсоров.
func (g *SponsorGate) Missing(ctx context.Context, userID int64) ([]*rewards.Sponsor, error) {
	if !g.enabled {
		return nil, nil
	}

	required, err := g.sponsors.RequiredSponsors(ctx)
	if err != nil {
		return nil, err
	}

	var missing []*rewards.Sponsor
	for _, sp := range required {
		if !g.isMember(sp.ChannelRef, userID) {
			missing = append(missing, sp)
		}
	}
	return missing, nil
}

func (g *SponsorGate) isMember(channelRef string, userID int64) bool {
	cm, err := g.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: channelRef,
			UserID:             userID,
		},
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"channel": channelRef,
			"user_id": userID,
		}).Warn("Не удалось проверить подписку")
		return false
	}

	switch cm.Status {
	case "creator", "administrator", "member", "restricted":
		return true
	default:
		return false
	}
}
