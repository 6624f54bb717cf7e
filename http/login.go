package http

import (
	"time"

	fiber "github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// loginEnabled reports whether routes are protected. Without a configured
// user and password the server is open; intended for single host setups.
func (h *Http) loginEnabled() bool {
	return h.conf != nil && h.conf.User != "" &&
		(h.conf.Password != "" || h.conf.PasswordHash != "")
}

// validUser checks the credentials against the config. A bcrypt
// passwordHash wins over a plain password when both are set.
func (h *Http) validUser(user string, pass string) bool {
	if h.conf == nil || user == "" || user != h.conf.User {
		return false
	}
	if h.conf.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(h.conf.PasswordHash), []byte(pass)) == nil
	}
	return pass == h.conf.Password
}

func (h *Http) sessionDuration() time.Duration {
	minutes := DefaultSessionMinutes
	if h.conf != nil && h.conf.SessionMinutes > 0 {
		minutes = h.conf.SessionMinutes
	}
	return time.Duration(minutes) * time.Minute
}

func (h *Http) createToken(user string, timeNow time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user": user,
		"exp":  timeNow.Add(h.sessionDuration()).Unix(),
	})
	return token.SignedString(h.signingKey)
}

func (h *Http) loginHandler(c *fiber.Ctx) error {
	user := c.FormValue("user")
	pass := c.FormValue("password")
	timeNow := time.Now()
	if h.validUser(user, pass) {
		t, err := h.createToken(user, timeNow)
		if err != nil {
			h.loginLogger.Printf("%s,error,%s,%s,%s\r\n", getFormattedKitchenTimestamp(timeNow), user, c.IP(), c.IPs())
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		h.loginLogger.Printf("%s,success,%s,%s,%s\r\n", getFormattedKitchenTimestamp(timeNow), user, c.IP(), c.IPs())
		return c.JSON(fiber.Map{"token": t})
	}
	h.loginLogger.Printf("%s,unauthorized,,%s,%s\r\n", getFormattedKitchenTimestamp(timeNow), c.IP(), c.IPs())
	return c.SendStatus(fiber.StatusUnauthorized)
}

func (h *Http) loginMiddleware() func(*fiber.Ctx) error {
	return jwtware.New(jwtware.Config{
		SigningKey: h.signingKey,
		SuccessHandler: func(c *fiber.Ctx) error {
			h.accessLogger.Printf("%s,access,%s,%s\r\n", getFormattedKitchenTimestamp(time.Now()), c.IP(), c.IPs())
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, e error) error {
			h.accessLogger.Printf("%s,%s,%s,%s\r\n", getFormattedKitchenTimestamp(time.Now()), e, c.IP(), c.IPs())
			return c.SendStatus(fiber.StatusUnauthorized)
		},
	})
}
