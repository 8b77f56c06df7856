package auth

import "golang.org/x/crypto/bcrypt"

// Bcrypt hashes passwords with golang.org/x/crypto/bcrypt.
type Bcrypt struct{ Cost int }

func NewBcrypt() Bcrypt { return Bcrypt{Cost: bcrypt.DefaultCost} }

func (b Bcrypt) Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), b.Cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b Bcrypt) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
