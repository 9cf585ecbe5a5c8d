package services

import (
  "context"
  "fmt"
  "time"
  "gorm.io/gorm"
  "golang.org/x/crypto/bcrypt"
  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"
  "github.com/fangzhi-labs/annotation-backend/internal/apperrors"
  "github.com/fangzhi-labs/annotation-backend/internal/logger"
  "github.com/fangzhi-labs/annotation-backend/internal/normalization"
  "github.com/fangzhi-labs/annotation-backend/internal/repos"
  "github.com/fangzhi-labs/annotation-backend/internal/requestdata"
  "github.com/fangzhi-labs/annotation-backend/internal/types"
)

type AuthService interface {
  RegisterUser(ctx context.Context, user *types.User) error
  LoginUser(ctx context.Context, username, password string) (*types.User, string, string, error)
  RefreshUser(ctx context.Context, refreshToken string) (string, string, error)
  LogoutUser(ctx context.Context) error
  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
  GetAccessTTL() time.Duration
}

type authService struct {
  db            *gorm.DB
  log           *logger.Logger
  userRepo      repos.UserRepo
  userTokenRepo repos.UserTokenRepo
  jwtSecretKey  string
  accessTTL     time.Duration
  refreshTTL    time.Duration
}

func NewAuthService(
  db *gorm.DB,
  log *logger.Logger,
  userRepo repos.UserRepo,
  userTokenRepo repos.UserTokenRepo,
  jwtSecretKey string,
  accessTTL time.Duration,
  refreshTTL time.Duration,
) AuthService {
  serviceLog := log.With("service", "AuthService")
  return &authService{
    db:            db,
    log:           serviceLog,
    userRepo:      userRepo,
    userTokenRepo: userTokenRepo,
    jwtSecretKey:  jwtSecretKey,
    accessTTL:     accessTTL,
    refreshTTL:    refreshTTL,
  }
}

func (as *authService) RegisterUser(ctx context.Context, user *types.User) error {
  user.Username = normalization.ParseInputString(user.Username)
  user.Email = normalization.ParseInputString(user.Email)
  user.FullName = normalization.TrimInputString(user.FullName)

  if user.Username == "" {
    return apperrors.NewValidationError("username", "username is required")
  }
  if user.Password == "" {
    return apperrors.NewValidationError("password", "password is required")
  }
  switch user.Role {
  case "":
    user.Role = types.RoleExpert
  case types.RoleExpert, types.RoleAdmin:
  default:
    return apperrors.NewValidationError("role", "role must be expert or admin")
  }

  exists, err := as.userRepo.UsernameExists(ctx, nil, user.Username)
  if err != nil {
    return fmt.Errorf("Failed to check username: %w", err)
  }
  if exists {
    return apperrors.NewValidationError("username", "username already exists")
  }

  hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
  if err != nil {
    return fmt.Errorf("Failed to hash password: %w", err)
  }
  user.Password = string(hashed)
  user.IsActive = true

  return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    user.ID = uuid.New()
    if _, err := as.userRepo.Create(ctx, tx, []*types.User{user}); err != nil {
      return fmt.Errorf("Failed to create user: %w", err)
    }
    return nil
  })
}

func (as *authService) LoginUser(ctx context.Context, username, password string) (*types.User, string, string, error) {
  username = normalization.ParseInputString(username)

  users, err := as.userRepo.GetByUsernames(ctx, nil, []string{username})
  if err != nil {
    return nil, "", "", fmt.Errorf("Error retrieving user by username: %w", err)
  }
  if len(users) == 0 {
    return nil, "", "", fmt.Errorf("invalid username or password: %w", apperrors.ErrUnauthenticated)
  }

  user := users[0]
  if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
    return nil, "", "", fmt.Errorf("invalid username or password: %w", apperrors.ErrUnauthenticated)
  }

  var accessToken string
  var refreshToken string
  if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if dtErr := as.userTokenRepo.FullDeleteByUserIDs(ctx, tx, []uuid.UUID{user.ID}); dtErr != nil {
      return fmt.Errorf("Failed to clear previous user tokens: %w", dtErr)
    }
    tok, genErr := as.generateAccessToken(user)
    if genErr != nil {
      return fmt.Errorf("Generate access token error: %w", genErr)
    }
    accessToken = tok
    refreshToken = uuid.New().String()
    userToken := types.UserToken{
      ID:           uuid.New(),
      UserID:       user.ID,
      AccessToken:  accessToken,
      RefreshToken: refreshToken,
      ExpiresAt:    time.Now().Add(as.refreshTTL),
    }
    if _, ctErr := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{&userToken}); ctErr != nil {
      return fmt.Errorf("Create user token error: %w", ctErr)
    }
    return nil
  }); err != nil {
    return nil, "", "", err
  }
  return user, accessToken, refreshToken, nil
}

func (as *authService) RefreshUser(ctx context.Context, refreshToken string) (string, string, error) {
  tokens, err := as.userTokenRepo.GetByRefreshTokens(ctx, nil, []string{refreshToken})
  if err != nil {
    return "", "", fmt.Errorf("Error retrieving refresh token: %w", err)
  }
  if len(tokens) == 0 || tokens[0] == nil {
    return "", "", fmt.Errorf("unknown refresh token: %w", apperrors.ErrUnauthenticated)
  }
  stored := tokens[0]
  if stored.ExpiresAt.Before(time.Now()) {
    return "", "", fmt.Errorf("refresh token expired: %w", apperrors.ErrUnauthenticated)
  }

  users, err := as.userRepo.GetByIDs(ctx, nil, []uuid.UUID{stored.UserID})
  if err != nil {
    return "", "", fmt.Errorf("Error retrieving user for refresh: %w", err)
  }
  if len(users) == 0 {
    return "", "", fmt.Errorf("user not found for refresh token: %w", apperrors.ErrUnauthenticated)
  }
  user := users[0]

  var accessToken string
  var newRefreshToken string
  if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if dtErr := as.userTokenRepo.FullDeleteByTokens(ctx, tx, []*types.UserToken{stored}); dtErr != nil {
      return fmt.Errorf("Failed to rotate refresh token: %w", dtErr)
    }
    tok, genErr := as.generateAccessToken(user)
    if genErr != nil {
      return fmt.Errorf("Generate access token error: %w", genErr)
    }
    accessToken = tok
    newRefreshToken = uuid.New().String()
    userToken := types.UserToken{
      ID:           uuid.New(),
      UserID:       user.ID,
      AccessToken:  accessToken,
      RefreshToken: newRefreshToken,
      ExpiresAt:    time.Now().Add(as.refreshTTL),
    }
    if _, ctErr := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{&userToken}); ctErr != nil {
      return fmt.Errorf("Create user token error: %w", ctErr)
    }
    return nil
  }); err != nil {
    return "", "", err
  }
  return accessToken, newRefreshToken, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return apperrors.ErrUnauthenticated
  }
  if err := as.userTokenRepo.FullDeleteByUserIDs(ctx, nil, []uuid.UUID{rd.UserID}); err != nil {
    return fmt.Errorf("Failed to delete user tokens: %w", err)
  }
  return nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  claims := jwt.MapClaims{}
  token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
    return []byte(as.jwtSecretKey), nil
  }, jwt.WithValidMethods([]string{"HS256"}))
  if err != nil || !token.Valid {
    return ctx, fmt.Errorf("invalid access token: %w", apperrors.ErrUnauthenticated)
  }

  sub, _ := claims["sub"].(string)
  userID, err := uuid.Parse(sub)
  if err != nil {
    return ctx, fmt.Errorf("invalid subject claim: %w", apperrors.ErrUnauthenticated)
  }

  users, err := as.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
  if err != nil {
    return ctx, fmt.Errorf("Error retrieving user for token: %w", err)
  }
  if len(users) == 0 || !users[0].IsActive {
    return ctx, fmt.Errorf("unknown or inactive user: %w", apperrors.ErrUnauthenticated)
  }
  user := users[0]

  rd := &requestdata.RequestData{
    TokenString: tokenString,
    UserID:      user.ID,
    Username:    user.Username,
    Role:        user.Role,
  }
  return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
  return as.accessTTL
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
  now := time.Now()
  claims := jwt.MapClaims{
    "sub":      user.ID.String(),
    "username": user.Username,
    "role":     user.Role,
    "iat":      now.Unix(),
    "exp":      now.Add(as.accessTTL).Unix(),
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  signed, err := token.SignedString([]byte(as.jwtSecretKey))
  if err != nil {
    return "", fmt.Errorf("Failed to sign access token: %w", err)
  }
  return signed, nil
}
