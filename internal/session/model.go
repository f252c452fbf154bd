package session

// InitialTokenGrant is the balance credited to accounts created by login or
// registration.
const InitialTokenGrant int64 = 100

// Plan is the subscription plan of a user.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// UserType separates regular users from professionals.
type UserType string

const (
	TypeUser         UserType = "user"
	TypeProfessional UserType = "professional"
)

// User is the single record a session holds. Its JSON form is the durable
// storage format.
type User struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Bio             string   `json:"bio"`
	WalletAddress   string   `json:"walletAddress,omitempty"`
	WalletConnected bool     `json:"walletConnected"`
	WalletSynthetic bool     `json:"walletSynthetic,omitempty"`
	TokenBalance    int64    `json:"tokenBalance"`
	Plan            Plan     `json:"plan"`
	Tier            int      `json:"tier"`
	Type            UserType `json:"type"`
	IsAuthenticated bool     `json:"isAuthenticated"`
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

// State is an immutable snapshot of a store.
type State struct {
	User      *User  `json:"user"`
	IsLoading bool   `json:"isLoading"`
	Error     string `json:"error,omitempty"`
}

// Authenticated reports whether the snapshot carries an authenticated user.
func (s State) Authenticated() bool {
	return s.User != nil && s.User.IsAuthenticated
}

// ProfilePatch lists the profile fields a user may change. Nil fields are
// left untouched.
type ProfilePatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Bio   *string `json:"bio,omitempty"`
	Plan  *Plan   `json:"plan,omitempty"`
	Tier  *int    `json:"tier,omitempty"`
}

func (p ProfilePatch) apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Plan != nil {
		u.Plan = *p.Plan
	}
	if p.Tier != nil {
		u.Tier = *p.Tier
	}
}

// RegisterInput carries the profile fields supplied at registration.
type RegisterInput struct {
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Bio           string   `json:"bio"`
	Password      string   `json:"password"`
	Type          UserType `json:"type"`
	WalletAddress string   `json:"walletAddress"`

	// WalletSynthetic is set by the caller after checking WalletAddress.
	WalletSynthetic bool `json:"-"`
}

// Account is what an Authenticator returns on success. Zero fields fall
// back to the defaults of a fresh session.
type Account struct {
	ID           string
	Name         string
	Email        string
	Bio          string
	Type         UserType
	Plan         Plan
	Tier         int
	TokenBalance int64
}

// WalletLink is the outcome of a successful wallet connection. Synthetic
// marks addresses fabricated without a real provider.
type WalletLink struct {
	Address   string
	Synthetic bool
}
