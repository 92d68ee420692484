// Package rewards управляет наградами: промокоды, спонсорские задания,
// ежедневный бонус и реферальные бонусы.
// models.go описывает структуры таблиц promo_codes, sponsors и связанных.
package rewards

import "time"

// PromoCode — общий код с ограниченным числом активаций.
// current_uses никогда не превышает max_uses: инкремент выполняется
// условным UPDATE, а не чтением с последующей записью.
type PromoCode struct {
	Code        string    `db:"code"`         // Сам код (первичный ключ)
	Reward      int64     `db:"reward"`       // Сколько алмазов даёт активация
	MaxUses     int       `db:"max_uses"`     // Лимит активаций всего
	CurrentUses int       `db:"current_uses"` // Сколько уже активировано
	CreatedAt   time.Time `db:"created_at"`
}

// Виды спонсорских каналов
const (
	// SponsorKindRequired — обязательная подписка, условие доступа к боту.
	// Выполнение не сбрасывается никогда.
	SponsorKindRequired = "required"
	// SponsorKindTask — ежедневное задание за награду.
	// Выполнения сбрасываются раз в сутки.
	SponsorKindTask = "task"
)

// Sponsor — спонсорский канал.
type Sponsor struct {
	ID         int64     `db:"sponsor_id"`
	ChannelRef string    `db:"channel_ref"`  // @username или ID канала для проверки подписки
	Name       string    `db:"channel_name"` // Отображаемое название
	Reward     int64     `db:"reward"`       // Награда за подписку (для kind=task)
	Kind       string    `db:"kind"`         // required или task
	Active     bool      `db:"is_active"`
	CreatedAt  time.Time `db:"created_at"`
}

// SponsorStatus — спонсор плюс отметка выполнения для конкретного пользователя.
type SponsorStatus struct {
	Sponsor
	Completed bool
}
