package bot

import "testing"

func keyboardButtons(gamesEnabled bool) map[string]bool {
	kb := mainKeyboard(gamesEnabled)
	out := make(map[string]bool)
	for _, row := range kb.Keyboard {
		for _, btn := range row {
			out[btn.Text] = true
		}
	}
	return out
}

func TestMainKeyboardContainsAllButtons(t *testing.T) {
	buttons := keyboardButtons(true)

	for _, want := range []string{
		btnProfile, btnBonus, btnTasks, btnInvite,
		btnPromo, btnHistory, btnWithdraw, btnRequests, btnGames,
	} {
		if !buttons[want] {
			t.Errorf("в меню нет кнопки %q", want)
		}
	}
}

func TestMainKeyboardHidesGamesWhenDisabled(t *testing.T) {
	buttons := keyboardButtons(false)

	if buttons[btnGames] {
		t.Error("кнопка игр показана при выключенных играх")
	}
	if !buttons[btnRequests] {
		t.Error("кнопка заявок пропала при выключенных играх")
	}
}

func TestIsMenuButton(t *testing.T) {
	for _, b := range []string{btnProfile, btnWithdraw, btnRequests, btnGames} {
		if !isMenuButton(b) {
			t.Errorf("isMenuButton(%q) = false", b)
		}
	}
	for _, s := range []string{"", "привет", "/start", "50"} {
		if isMenuButton(s) {
			t.Errorf("isMenuButton(%q) = true", s)
		}
	}
}
