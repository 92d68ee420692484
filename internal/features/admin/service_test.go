package admin

import (
	"strings"
	"testing"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("секретный-пароль-123")
	if err != nil {
		t.Fatalf("HashPassword: неожиданная ошибка %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=2$") {
		t.Errorf("неожиданный формат хеша: %s", hash)
	}

	if !verifyArgon2id("секретный-пароль-123", hash) {
		t.Error("верный пароль не прошёл проверку")
	}
	if verifyArgon2id("неверный-пароль", hash) {
		t.Error("неверный пароль прошёл проверку")
	}
}

func TestHashPasswordUniqueSalt(t *testing.T) {
	h1, err := HashPassword("пароль")
	if err != nil {
		t.Fatalf("HashPassword: неожиданная ошибка %v", err)
	}
	h2, err := HashPassword("пароль")
	if err != nil {
		t.Fatalf("HashPassword: неожиданная ошибка %v", err)
	}
	if h1 == h2 {
		t.Error("два хеша одного пароля совпали — соль не генерируется")
	}
}

func TestVerifyArgon2idMalformedHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"пустая строка", ""},
		{"мало частей", "$argon2id$v=19"},
		{"битые параметры", "$argon2id$v=19$oops$c2FsdA$aGFzaA"},
		{"битая соль", "$argon2id$v=19$m=65536,t=3,p=2$***$aGFzaA"},
		{"битый хеш", "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if verifyArgon2id("пароль", tt.hash) {
				t.Error("некорректный хеш прошёл проверку")
			}
		})
	}
}

func TestGenerateSecureTokenUnique(t *testing.T) {
	t1 := generateSecureToken()
	t2 := generateSecureToken()
	if t1 == t2 {
		t.Error("два токена совпали")
	}
	if len(t1) < 32 {
		t.Errorf("токен подозрительно короткий: %d символов", len(t1))
	}
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		in       string
		wantCmd  string
		wantArgs []string
	}{
		{"/approve 12", "/approve", []string{"12"}},
		{"/approve_12", "/approve", []string{"12"}},
		{"/adjust 100 -5 спам", "/adjust", []string{"100", "-5", "спам"}},
		{"/stats@almaz_bot", "/stats", nil},
		{"просто текст", "", nil},
		{"", "", nil},
	}

	for _, tt := range tests {
		cmd, args := splitCommand(tt.in)
		if cmd != tt.wantCmd {
			t.Errorf("splitCommand(%q): команда = %q, ожидалась %q", tt.in, cmd, tt.wantCmd)
		}
		if len(args) != len(tt.wantArgs) {
			t.Errorf("splitCommand(%q): аргументы = %v, ожидались %v", tt.in, args, tt.wantArgs)
			continue
		}
		for i := range args {
			if args[i] != tt.wantArgs[i] {
				t.Errorf("splitCommand(%q): аргумент %d = %q, ожидался %q", tt.in, i, args[i], tt.wantArgs[i])
			}
		}
	}
}
