package services

import (
  "errors"
  "testing"
  "github.com/google/uuid"
  "github.com/fangzhi-labs/annotation-backend/internal/apperrors"
  "github.com/fangzhi-labs/annotation-backend/internal/types"
)

func TestSaveAndGetRoundTrip(t *testing.T) {
  env := newTestEnv(t, false)
  expert := seedUser(t, env, types.RoleExpert)
  doc := seedDocument(t, env, "doc", &expert.ID)

  saved, err := env.annotations.Save(ctxAs(expert), doc.ID, SaveAnnotationInput{
    Evaluation: boolPtr(true),
    Comments: []types.CommentItem{
      {SelectedText: "generated text", Comment: "wrong tone"},
      {SelectedText: "generated text", Comment: "wrong tone"},
      {SelectedText: "source material", Comment: "missing detail"},
    },
    TimeSpent: 90,
  })
  if err != nil {
    t.Fatalf("save: %v", err)
  }
  if saved.IsCompleted {
    t.Fatalf("draft saved as completed")
  }

  got, err := env.annotations.Get(ctxAs(expert), doc.ID)
  if err != nil {
    t.Fatalf("get: %v", err)
  }
  if got.Evaluation == nil || !*got.Evaluation {
    t.Fatalf("evaluation not persisted")
  }
  if got.TimeSpent != 90 {
    t.Fatalf("time_spent=%d, want 90", got.TimeSpent)
  }

  // Duplicate comments survive, in payload order.
  comments := DecodeComments(got.Comments)
  if len(comments) != 3 {
    t.Fatalf("got %d comments, want 3", len(comments))
  }
  if comments[0] != comments[1] {
    t.Fatalf("duplicate comments not preserved")
  }
  if comments[2].Comment != "missing detail" {
    t.Fatalf("comment order not preserved")
  }
}

func TestSaveWholesaleReplace(t *testing.T) {
  env := newTestEnv(t, false)
  expert := seedUser(t, env, types.RoleExpert)
  doc := seedDocument(t, env, "doc", &expert.ID)

  if _, err := env.annotations.Save(ctxAs(expert), doc.ID, SaveAnnotationInput{
    Evaluation: boolPtr(false),
    Comments:   []types.CommentItem{{SelectedText: "x", Comment: "y"}},
    TimeSpent:  120,
  }); err != nil {
    t.Fatalf("first save: %v", err)
  }

  // Second save omits everything: evaluation clears, comments empty,
  // time_spent is replaced rather than accumulated.
  if _, err := env.annotations.Save(ctxAs(expert), doc.ID, SaveAnnotationInput{
    TimeSpent: 30,
  }); err != nil {
    t.Fatalf("second save: %v", err)
  }

  got, err := env.annotations.Get(ctxAs(expert), doc.ID)
  if err != nil {
    t.Fatalf("get: %v", err)
  }
  if got.Evaluation != nil {
    t.Fatalf("evaluation should be cleared by replace")
  }
  if got.TimeSpent != 30 {
    t.Fatalf("time_spent=%d, want 30 (replace, not accumulate)", got.TimeSpent)
  }
  if len(DecodeComments(got.Comments)) != 0 {
    t.Fatalf("comments should be cleared by replace")
  }

  // Still exactly one record for the pair.
  all, err := env.annotationRepo.ListByDocumentIDs(ctxAs(expert), nil, []uuid.UUID{doc.ID})
  if err != nil {
    t.Fatalf("list: %v", err)
  }
  if len(all) != 1 {
    t.Fatalf("got %d records, want 1", len(all))
  }
}

func TestSaveValidation(t *testing.T) {
  env := newTestEnv(t, false)
  expert := seedUser(t, env, types.RoleExpert)
  admin := seedUser(t, env, types.RoleAdmin)
  doc := seedDocument(t, env, "doc", nil)

  cases := []struct {
    name  string
    input SaveAnnotationInput
  }{
    {name: "negative_time", input: SaveAnnotationInput{TimeSpent: -1}},
    {name: "empty_selected_text", input: SaveAnnotationInput{Comments: []types.CommentItem{{Comment: "c"}}}},
    {name: "empty_comment", input: SaveAnnotationInput{Comments: []types.CommentItem{{SelectedText: "s"}}}},
  }
  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      _, err := env.annotations.Save(ctxAs(expert), doc.ID, tc.input)
      if !apperrors.IsValidation(err) {
        t.Fatalf("got %v, want validation error", err)
      }
    })
  }

  t.Run("admin_forbidden", func(t *testing.T) {
    _, err := env.annotations.Save(ctxAs(admin), doc.ID, SaveAnnotationInput{})
    if !errors.Is(err, apperrors.ErrForbidden) {
      t.Fatalf("got %v, want forbidden", err)
    }
  })

  t.Run("unknown_document", func(t *testing.T) {
    _, err := env.annotations.Save(ctxAs(expert), uuid.New(), SaveAnnotationInput{})
    if !errors.Is(err, apperrors.ErrNotFound) {
      t.Fatalf("got %v, want not found", err)
    }
  })
}

func TestSaveOwnership(t *testing.T) {
  env := newTestEnv(t, false)
  expertA := seedUser(t, env, types.RoleExpert)
  expertB := seedUser(t, env, types.RoleExpert)
  assigned := seedDocument(t, env, "assigned to A", &expertA.ID)
  unassigned := seedDocument(t, env, "free for all", nil)

  // B cannot write on A's document.
  _, err := env.annotations.Save(ctxAs(expertB), assigned.ID, SaveAnnotationInput{TimeSpent: 5})
  if !errors.Is(err, apperrors.ErrForbidden) {
    t.Fatalf("got %v, want forbidden", err)
  }

  // A can.
  if _, err := env.annotations.Save(ctxAs(expertA), assigned.ID, SaveAnnotationInput{TimeSpent: 5}); err != nil {
    t.Fatalf("save as assignee: %v", err)
  }

  // An unassigned document accepts writes from any expert without a claim.
  if _, err := env.annotations.Save(ctxAs(expertB), unassigned.ID, SaveAnnotationInput{TimeSpent: 5}); err != nil {
    t.Fatalf("save on unassigned document: %v", err)
  }
}

func TestSubmitLock(t *testing.T) {
  t.Run("locked", func(t *testing.T) {
    env := newTestEnv(t, true)
    expert := seedUser(t, env, types.RoleExpert)
    doc := seedDocument(t, env, "doc", &expert.ID)

    if _, err := env.annotations.Save(ctxAs(expert), doc.ID, SaveAnnotationInput{
      Evaluation:  boolPtr(true),
      IsCompleted: true,
    }); err != nil {
      t.Fatalf("submit: %v", err)
    }

    _, err := env.annotations.Save(ctxAs(expert), doc.ID, SaveAnnotationInput{TimeSpent: 1})
    if !errors.Is(err, apperrors.ErrConflict) {
      t.Fatalf("got %v, want conflict on locked record", err)
    }
  })

  t.Run("unlocked", func(t *testing.T) {
    env := newTestEnv(t, false)
    expert := seedUser(t, env, types.RoleExpert)
    doc := seedDocument(t, env, "doc", &expert.ID)

    if _, err := env.annotations.Save(ctxAs(expert), doc.ID, SaveAnnotationInput{
      Evaluation:  boolPtr(true),
      IsCompleted: true,
    }); err != nil {
      t.Fatalf("submit: %v", err)
    }

    // Un-submitting is a plain replace with is_completed false.
    if _, err := env.annotations.Save(ctxAs(expert), doc.ID, SaveAnnotationInput{TimeSpent: 1}); err != nil {
      t.Fatalf("resave after submit: %v", err)
    }
    got, err := env.annotations.Get(ctxAs(expert), doc.ID)
    if err != nil {
      t.Fatalf("get: %v", err)
    }
    if got.IsCompleted {
      t.Fatalf("record still completed after unsubmit")
    }
  })
}

func TestGetOwnRecordOnly(t *testing.T) {
  env := newTestEnv(t, false)
  expertA := seedUser(t, env, types.RoleExpert)
  expertB := seedUser(t, env, types.RoleExpert)
  doc := seedDocument(t, env, "doc", nil)

  if _, err := env.annotations.Save(ctxAs(expertA), doc.ID, SaveAnnotationInput{TimeSpent: 10}); err != nil {
    t.Fatalf("save as A: %v", err)
  }

  // B has no record on this document, even though A does.
  _, err := env.annotations.Get(ctxAs(expertB), doc.ID)
  if !errors.Is(err, apperrors.ErrNotFound) {
    t.Fatalf("got %v, want not found", err)
  }
}

func TestListForDocument(t *testing.T) {
  env := newTestEnv(t, false)
  expertA := seedUser(t, env, types.RoleExpert)
  expertB := seedUser(t, env, types.RoleExpert)
  admin := seedUser(t, env, types.RoleAdmin)
  doc := seedDocument(t, env, "doc", nil)

  if _, err := env.annotations.Save(ctxAs(expertA), doc.ID, SaveAnnotationInput{
    Evaluation:  boolPtr(true),
    IsCompleted: true,
  }); err != nil {
    t.Fatalf("save as A: %v", err)
  }
  if _, err := env.annotations.Save(ctxAs(expertB), doc.ID, SaveAnnotationInput{
    Comments: []types.CommentItem{{SelectedText: "generated text", Comment: "awkward"}},
  }); err != nil {
    t.Fatalf("save as B: %v", err)
  }

  t.Run("expert_forbidden", func(t *testing.T) {
    _, err := env.annotations.ListForDocument(ctxAs(expertA), doc.ID)
    if !errors.Is(err, apperrors.ErrForbidden) {
      t.Fatalf("got %v, want forbidden", err)
    }
  })

  t.Run("unknown_document", func(t *testing.T) {
    _, err := env.annotations.ListForDocument(ctxAs(admin), uuid.New())
    if !errors.Is(err, apperrors.ErrNotFound) {
      t.Fatalf("got %v, want not found", err)
    }
  })

  t.Run("admin_sees_all_with_usernames", func(t *testing.T) {
    views, err := env.annotations.ListForDocument(ctxAs(admin), doc.ID)
    if err != nil {
      t.Fatalf("list: %v", err)
    }
    if len(views) != 2 {
      t.Fatalf("got %d views, want 2", len(views))
    }
    byAnnotator := make(map[uuid.UUID]*AnnotationView)
    for _, v := range views {
      byAnnotator[v.AnnotatorID] = v
    }
    viewA := byAnnotator[expertA.ID]
    if viewA == nil || viewA.Username != expertA.Username || !viewA.IsCompleted {
      t.Fatalf("A's view wrong: %+v", viewA)
    }
    viewB := byAnnotator[expertB.ID]
    if viewB == nil || len(viewB.Comments) != 1 || viewB.Evaluation != nil {
      t.Fatalf("B's view wrong: %+v", viewB)
    }
  })
}
