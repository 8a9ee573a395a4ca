package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"offerwall/internal/domain"
	"offerwall/internal/logger"
	"offerwall/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInvalidInitData = errors.New("invalid telegram init data")

// ValidateTelegramInitData verifies Telegram WebApp init_data HMAC and checks
// that the auth_date is recent (within 1 hour) to mitigate replay attacks.
func ValidateTelegramInitData(initData, botToken string) (url.Values, bool) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, false
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, false
	}
	values.Del("hash")

	var dataCheck []string
	for k, v := range values {
		dataCheck = append(dataCheck, k+"="+strings.Join(v, ""))
	}

	sort.Strings(dataCheck)
	dataString := strings.Join(dataCheck, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	h := hmac.New(sha256.New, secret.Sum(nil))
	h.Write([]byte(dataString))

	calculated := h.Sum(nil)
	provided, err := hex.DecodeString(hash)
	if err != nil {
		return nil, false
	}

	if !hmac.Equal(calculated, provided) {
		return nil, false
	}

	// Freshness check: require auth_date within the last hour
	authDateStr := values.Get("auth_date")
	if authDateStr == "" {
		return nil, false
	}
	authDate, err := strconv.ParseInt(authDateStr, 10, 64)
	if err != nil {
		return nil, false
	}

	now := time.Now().Unix()
	// allow small clock skew, but reject anything older than 1 hour
	if now-authDate > 3600 || authDate-now > 300 {
		return nil, false
	}

	return values, true
}

type telegramUser struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	IsPremium    bool   `json:"is_premium"`
	LanguageCode string `json:"language_code"`
}

// AuthService exchanges Telegram WebApp init data for a platform session:
// validate, get-or-create the user, bind the referral code once, issue a
// JWT.
type AuthService struct {
	users    *repository.UserRepository
	botToken string
}

func NewAuthService(db *pgxpool.Pool, botToken string) *AuthService {
	return &AuthService{users: repository.NewUserRepository(db), botToken: botToken}
}

// Authenticate returns the user and a signed session token.
func (s *AuthService) Authenticate(ctx context.Context, initData string) (*domain.User, string, error) {
	values, ok := ValidateTelegramInitData(initData, s.botToken)
	if !ok {
		return nil, "", ErrInvalidInitData
	}

	var tgUser telegramUser
	if err := json.Unmarshal([]byte(values.Get("user")), &tgUser); err != nil || tgUser.ID == 0 {
		return nil, "", ErrInvalidInitData
	}

	user, err := s.users.GetByTgID(ctx, tgUser.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		user = &domain.User{
			TgID:        tgUser.ID,
			Username:    tgUser.Username,
			FirstName:   tgUser.FirstName,
			IsPremium:   tgUser.IsPremium,
			CountryCode: countryFromLanguage(tgUser.LanguageCode),
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, "", err
		}
		s.applyReferral(ctx, user, values.Get("start_param"))
	} else if err != nil {
		return nil, "", err
	}

	if user.Status == domain.UserBanned {
		return nil, "", ErrUserNotActive
	}

	token, err := GenerateJWT(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// applyReferral binds the referrer from a ref_ start parameter. Best
// effort: a dead or self-referencing code is ignored, signup proceeds.
func (s *AuthService) applyReferral(ctx context.Context, user *domain.User, startParam string) {
	code, found := strings.CutPrefix(startParam, "ref_")
	if !found || code == "" {
		return
	}

	referrer, err := s.users.GetByReferralCode(ctx, code)
	if err != nil {
		return
	}
	if referrer.ID == user.ID {
		return
	}
	if err := s.users.SetReferrer(ctx, user.ID, referrer.ID); err != nil {
		logger.Debug("referral bind skipped", "user_id", user.ID, "code", code, "error", err)
		return
	}
	user.ReferredBy = &referrer.ID
}

// countryFromLanguage maps a Telegram language code to a best-guess
// country for offer targeting. Users can be retargeted once IP
// intelligence sees them.
func countryFromLanguage(lang string) string {
	if i := strings.IndexByte(lang, '-'); i >= 0 {
		return strings.ToUpper(lang[i+1:])
	}
	switch strings.ToLower(lang) {
	case "en":
		return "US"
	case "de":
		return "DE"
	case "ru":
		return "RU"
	case "uk":
		return "UA"
	case "es":
		return "ES"
	case "pt":
		return "BR"
	case "fr":
		return "FR"
	case "it":
		return "IT"
	case "tr":
		return "TR"
	case "hi":
		return "IN"
	}
	return ""
}
