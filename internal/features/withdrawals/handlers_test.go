package withdrawals

import "testing"

func TestCancelDialogClearsState(t *testing.T) {
	h := NewHandler(nil, nil)

	if h.InDialog(7) {
		t.Fatal("диалог активен до начала")
	}

	h.setDialog(7, &dialogState{step: stepAmount})
	if !h.InDialog(7) {
		t.Fatal("диалог не активен после начала")
	}

	h.CancelDialog(7)
	if h.InDialog(7) {
		t.Error("диалог активен после отмены")
	}
}

func TestCancelDialogOtherUsersUntouched(t *testing.T) {
	h := NewHandler(nil, nil)
	h.setDialog(7, &dialogState{step: stepPhone, amount: 30})
	h.setDialog(8, &dialogState{step: stepAmount})

	h.CancelDialog(7)

	if h.InDialog(7) {
		t.Error("диалог пользователя 7 не отменён")
	}
	if !h.InDialog(8) {
		t.Error("отмена задела диалог другого пользователя")
	}
}
