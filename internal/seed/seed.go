package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/coolmes833/swapskills/internal/auth"
	"github.com/coolmes833/swapskills/internal/db"
	"github.com/coolmes833/swapskills/internal/match"
	"github.com/coolmes833/swapskills/internal/repository"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password"

var skillPool = []string{
	"Guitar", "Piano", "Spanish", "French", "Cooking", "Photography",
	"Go", "Python", "Yoga", "Drawing", "Chess", "Public Speaking",
}

// Result summarises what was seeded.
type Result struct {
	Users   []string
	Matches int
	Pending int
}

// Demo creates n demo accounts with profiles, then lets them like each other
// through the match service: every third like is returned, so the data set
// has both matches and pending requests. Existing demo accounts are reused.
//
// Accounts are user1@example.com … userN@example.com, password DemoPassword.
func Demo(ctx context.Context, users *repository.UserRepository, matcher *match.Service, n int, log *slog.Logger) (Result, error) {
	var res Result
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return res, fmt.Errorf("failed to hash password: %w", err)
	}

	// --- Seed users ---
	for i := 1; i <= n; i++ {
		u := &db.User{
			ID:           fmt.Sprintf("00000000-0000-4000-8000-%012d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Name:         fmt.Sprintf("User %d", i),
			Description:  "Happy to swap skills.",
			Skills:       pickSkills(r, 2),
		}
		err := users.Create(ctx, u)
		if errors.Is(err, repository.ErrEmailTaken) {
			existing, err := users.GetByEmail(ctx, u.Email)
			if err != nil {
				return res, err
			}
			res.Users = append(res.Users, existing.ID)
			continue
		}
		if err != nil {
			return res, fmt.Errorf("failed to seed user: %w", err)
		}
		res.Users = append(res.Users, u.ID)
	}
	log.Info("seeded users", "count", len(res.Users))

	// --- Seed interest ---
	counter := 0
	for _, owner := range res.Users {
		for j := 0; j < 4; j++ {
			target := res.Users[r.Intn(len(res.Users))]
			if target == owner {
				continue
			}

			if _, err := matcher.RecordInterest(ctx, auth.Session{UserID: owner}, target); err != nil {
				return res, fmt.Errorf("failed to seed interest: %w", err)
			}

			// guarantee a like back every 3rd pair
			if counter%3 == 0 {
				if _, err := matcher.RecordInterest(ctx, auth.Session{UserID: target}, owner); err != nil {
					return res, fmt.Errorf("failed to seed interest: %w", err)
				}
			}
			counter++
		}
	}

	for _, id := range res.Users {
		v, err := matcher.CurrentView(ctx, id)
		if err != nil {
			return res, err
		}
		res.Matches += len(v.Matched)
		res.Pending += len(v.Pending)
	}
	res.Matches /= 2 // each match has two records
	log.Info("seeded interest", "matches", res.Matches, "pending", res.Pending)
	return res, nil
}

func pickSkills(r *rand.Rand, n int) []string {
	perm := r.Perm(len(skillPool))
	out := make([]string, 0, n)
	for _, i := range perm[:n] {
		out = append(out, skillPool[i])
	}
	return out
}
