package services

import (
  "context"
  "errors"
  "testing"
  "time"
  "github.com/fangzhi-labs/annotation-backend/internal/apperrors"
  "github.com/fangzhi-labs/annotation-backend/internal/repos"
  "github.com/fangzhi-labs/annotation-backend/internal/requestdata"
  "github.com/fangzhi-labs/annotation-backend/internal/types"
)

func newAuthService(t *testing.T, env *testEnv) AuthService {
  t.Helper()
  log := newTestLogger()
  tokenRepo := repos.NewUserTokenRepo(env.db, log)
  return NewAuthService(env.db, log, env.userRepo, tokenRepo, "test-secret", time.Hour, 24*time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
  env := newTestEnv(t, false)
  auth := newAuthService(t, env)
  ctx := context.Background()

  user := &types.User{
    Username: "  Zhang.Wei  ",
    Email:    "zhang@example.com",
    FullName: "Zhang Wei",
    Password: "s3cret",
  }
  if err := auth.RegisterUser(ctx, user); err != nil {
    t.Fatalf("register: %v", err)
  }
  if user.Username != "zhang.wei" {
    t.Fatalf("username not normalized: %q", user.Username)
  }
  if user.Role != types.RoleExpert {
    t.Fatalf("role %q, want default expert", user.Role)
  }
  if user.Password == "s3cret" {
    t.Fatalf("password stored in plaintext")
  }

  t.Run("duplicate_username", func(t *testing.T) {
    err := auth.RegisterUser(ctx, &types.User{Username: "zhang.wei", Password: "other"})
    if !apperrors.IsValidation(err) {
      t.Fatalf("got %v, want validation error", err)
    }
  })

  t.Run("wrong_password", func(t *testing.T) {
    _, _, _, err := auth.LoginUser(ctx, "zhang.wei", "wrong")
    if !errors.Is(err, apperrors.ErrUnauthenticated) {
      t.Fatalf("got %v, want unauthenticated", err)
    }
  })

  t.Run("unknown_username", func(t *testing.T) {
    _, _, _, err := auth.LoginUser(ctx, "nobody", "s3cret")
    if !errors.Is(err, apperrors.ErrUnauthenticated) {
      t.Fatalf("got %v, want unauthenticated", err)
    }
  })

  t.Run("login_and_token_round_trip", func(t *testing.T) {
    loggedIn, access, refresh, err := auth.LoginUser(ctx, "Zhang.Wei", "s3cret")
    if err != nil {
      t.Fatalf("login: %v", err)
    }
    if loggedIn.ID != user.ID || access == "" || refresh == "" {
      t.Fatalf("login returned incomplete session")
    }

    authedCtx, err := auth.SetContextFromToken(ctx, access)
    if err != nil {
      t.Fatalf("set context from token: %v", err)
    }
    rd := requestdata.GetRequestData(authedCtx)
    if rd == nil || rd.UserID != user.ID || rd.Role != types.RoleExpert {
      t.Fatalf("request data wrong: %+v", rd)
    }
  })

  t.Run("garbage_token", func(t *testing.T) {
    _, err := auth.SetContextFromToken(ctx, "not-a-jwt")
    if !errors.Is(err, apperrors.ErrUnauthenticated) {
      t.Fatalf("got %v, want unauthenticated", err)
    }
  })
}

func TestRefreshRotation(t *testing.T) {
  env := newTestEnv(t, false)
  auth := newAuthService(t, env)
  ctx := context.Background()

  if err := auth.RegisterUser(ctx, &types.User{Username: "rotator", Password: "pw"}); err != nil {
    t.Fatalf("register: %v", err)
  }
  _, _, refresh, err := auth.LoginUser(ctx, "rotator", "pw")
  if err != nil {
    t.Fatalf("login: %v", err)
  }

  newAccess, newRefresh, err := auth.RefreshUser(ctx, refresh)
  if err != nil {
    t.Fatalf("refresh: %v", err)
  }
  if newAccess == "" || newRefresh == "" || newRefresh == refresh {
    t.Fatalf("refresh did not rotate the token pair")
  }

  // The old refresh token is spent.
  if _, _, err := auth.RefreshUser(ctx, refresh); !errors.Is(err, apperrors.ErrUnauthenticated) {
    t.Fatalf("got %v, want unauthenticated for spent token", err)
  }
}

func TestLogoutInvalidatesRefresh(t *testing.T) {
  env := newTestEnv(t, false)
  auth := newAuthService(t, env)
  ctx := context.Background()

  if err := auth.RegisterUser(ctx, &types.User{Username: "leaver", Password: "pw"}); err != nil {
    t.Fatalf("register: %v", err)
  }
  user, access, refresh, err := auth.LoginUser(ctx, "leaver", "pw")
  if err != nil {
    t.Fatalf("login: %v", err)
  }

  authedCtx := requestdata.WithRequestData(ctx, &requestdata.RequestData{
    TokenString: access,
    UserID:      user.ID,
    Username:    user.Username,
    Role:        user.Role,
  })
  if err := auth.LogoutUser(authedCtx); err != nil {
    t.Fatalf("logout: %v", err)
  }
  if _, _, err := auth.RefreshUser(ctx, refresh); !errors.Is(err, apperrors.ErrUnauthenticated) {
    t.Fatalf("got %v, want unauthenticated after logout", err)
  }
}

func TestListExperts(t *testing.T) {
  env := newTestEnv(t, false)
  expert := seedUser(t, env, types.RoleExpert)
  admin := seedUser(t, env, types.RoleAdmin)

  t.Run("expert_forbidden", func(t *testing.T) {
    _, err := env.users.ListExperts(ctxAs(expert))
    if !errors.Is(err, apperrors.ErrForbidden) {
      t.Fatalf("got %v, want forbidden", err)
    }
  })

  t.Run("admin_gets_experts_only", func(t *testing.T) {
    experts, err := env.users.ListExperts(ctxAs(admin))
    if err != nil {
      t.Fatalf("list experts: %v", err)
    }
    if len(experts) != 1 || experts[0].ID != expert.ID {
      t.Fatalf("expert list wrong: %d entries", len(experts))
    }
  })
}
