package users

import "golang.org/x/crypto/bcrypt"

// BCryptHasher is the reference PasswordHasher, grounded on the bcrypt
// dependency original_source/asgard/users/__init__.py declares for its
// default hashing plugin.
type BCryptHasher struct {
	// Cost is passed to bcrypt.GenerateFromPassword. Zero uses
	// bcrypt.DefaultCost.
	Cost int
}

func (h BCryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h BCryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
