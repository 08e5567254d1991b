package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials - неверное имя или пароль
var ErrBadCredentials = errors.New("неверное имя пользователя или пароль")

// HashPassword returns a bcrypt hash of the password. cost <= 0 означает DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword compares a bcrypt hashed password with its possible plaintext equivalent.
func CheckPassword(hash string, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Credentials - учётная запись администратора из конфигурации
type Credentials struct {
	Username     string
	PasswordHash string
}

// Enabled сообщает, настроен ли вход по паролю
func (c Credentials) Enabled() bool {
	return c.PasswordHash != ""
}

// Verify проверяет пару имя/пароль. Хэш сравнивается и при чужом имени,
// чтобы время ответа не выдавало существующее имя.
func (c Credentials) Verify(username, password string) error {
	if !c.Enabled() {
		return ErrBadCredentials
	}
	passOK := CheckPassword(c.PasswordHash, password)
	if username != c.Username || !passOK {
		return ErrBadCredentials
	}
	return nil
}
