package account

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/coolmes833/swapskills/internal/api"
	"github.com/coolmes833/swapskills/internal/app"
	"github.com/coolmes833/swapskills/internal/auth"
	"github.com/coolmes833/swapskills/internal/db"
	svcErr "github.com/coolmes833/swapskills/internal/errors"
	"github.com/coolmes833/swapskills/internal/repository"
)

const defaultSearchLimit = 20

// Service implements the AccountService gRPC API: accounts, sign-in tokens
// and the public skill profile.
type Service struct {
	appCtx   *app.AppContext
	userRepo *repository.UserRepository
	validate *validator.Validate
	cost     int
}

// NewAccountService creates a new Account service with dependencies from AppContext.
func NewAccountService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		userRepo: repository.NewUserRepository(appCtx.DB),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		cost:     bcrypt.DefaultCost,
	}
}

// SignUp creates an account and returns a session token for it.
//
// Behavior:
//   - Email must be valid and unused; password at least 6 characters.
//   - The password is stored as a bcrypt hash.
//   - The user id is a random uuid; it is the owner id of the user's interest records.
//
// Example:
//
//	svc.SignUp(ctx, &api.SignUpRequest{Email: "ana@example.com", Password: "secret1"})
func (s *Service) SignUp(ctx context.Context, req *api.SignUpRequest) (*api.AuthResponse, error) {
	s.appCtx.Logger.Debug("SignUp called", "email", req.Email)

	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.check(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		s.appCtx.Logger.Error("password hashing failed", "err", err)
		return nil, svcErr.Map(err)
	}

	user := &db.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if !errors.Is(err, repository.ErrEmailTaken) {
			s.appCtx.Logger.Error("create user failed", "err", err)
		}
		return nil, svcErr.Map(err)
	}

	s.appCtx.Logger.Info("account created", "user", user.ID)
	return s.issue(user.ID)
}

// SignIn checks the credentials and returns a fresh session token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, req *api.SignInRequest) (*api.AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.check(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.Map(auth.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, svcErr.Map(auth.ErrInvalidCredentials)
	}

	return s.issue(user.ID)
}

// GetProfile returns the profile of req.UserID, or the caller's own.
func (s *Service) GetProfile(ctx context.Context, req *api.GetProfileRequest) (*api.Profile, error) {
	sess, err := auth.FromContext(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	id := req.UserID
	if id == "" {
		id = sess.UserID
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return toProfile(user), nil
}

// SaveProfile sets the caller's name, description and skills. All three are
// required; blank skills are rejected and duplicates (case-insensitive) collapse.
func (s *Service) SaveProfile(ctx context.Context, req *api.SaveProfileRequest) (*api.Profile, error) {
	sess, err := auth.FromContext(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.Skills = normaliseSkills(req.Skills)
	if err := s.check(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.UpdateProfile(ctx, sess.UserID, req.Name, req.Description, req.Skills)
	if err != nil {
		s.appCtx.Logger.Error("UpdateProfile failed", "user", sess.UserID, "err", err)
		return nil, svcErr.Map(err)
	}
	return toProfile(user), nil
}

// SearchProfiles finds other users offering a skill (case-insensitive substring).
func (s *Service) SearchProfiles(ctx context.Context, req *api.SearchProfilesRequest) (*api.SearchProfilesResponse, error) {
	sess, err := auth.FromContext(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	req.Skill = strings.TrimSpace(req.Skill)
	if err := s.check(req); err != nil {
		return nil, err
	}

	limit := int(req.Limit)
	if limit == 0 {
		limit = defaultSearchLimit
	}
	users, err := s.userRepo.SearchBySkill(ctx, sess.UserID, req.Skill, limit)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := &api.SearchProfilesResponse{Profiles: make([]api.Profile, 0, len(users))}
	for i := range users {
		resp.Profiles = append(resp.Profiles, *toProfile(&users[i]))
	}
	return resp, nil
}

func (s *Service) issue(userID string) (*api.AuthResponse, error) {
	token, err := s.appCtx.Tokens.Issue(userID)
	if err != nil {
		s.appCtx.Logger.Error("token issue failed", "err", err)
		return nil, svcErr.Map(err)
	}
	return &api.AuthResponse{UserID: userID, Token: token}, nil
}

// check validates req and reports the first failing field as InvalidArgument.
func (s *Service) check(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return svcErr.InvalidArgument(fieldName(fe.Namespace()), "failed "+fe.Tag()+" check")
	}
	return svcErr.InvalidArgument("request", err.Error())
}

// fieldName turns "SaveProfileRequest.Skills[0]" into "skills[0]".
func fieldName(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	return strings.ToLower(namespace)
}

func normaliseSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, sk := range skills {
		sk = strings.TrimSpace(sk)
		key := strings.ToLower(sk)
		if seen[key] && sk != "" {
			continue
		}
		seen[key] = true
		out = append(out, sk)
	}
	return out
}

func toProfile(u *db.User) *api.Profile {
	skills := u.Skills
	if skills == nil {
		skills = []string{}
	}
	return &api.Profile{UserID: u.ID, Name: u.Name, Description: u.Description, Skills: skills}
}
