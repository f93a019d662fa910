package docstore

import (
	"fmt"
	"time"
)

// Formes de documents typées. Le document store historique trimballait des
// maps libres; chaque forme a désormais un contrat de sérialisation explicite
// et le décodage échoue sur champ obligatoire manquant au lieu de retourner
// des zéros silencieux.

// DecodeError signale un document qui ne respecte pas sa forme attendue.
type DecodeError struct {
	Collection string
	DocID      string
	Field      string
	Reason     string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("document %s/%s: champ %q %s", e.Collection, e.DocID, e.Field, e.Reason)
}

// InboxImage est une pièce jointe d'une soumission: URL distante + nom d'origine.
type InboxImage struct {
	OnlinePath string
	FileName   string
}

// InboxSubmission est une soumission citoyenne en attente d'import.
type InboxSubmission struct {
	DocID        string
	Description  string
	X            float64
	Y            float64
	Localisation string
	UserToken    string // UID fournisseur d'identité du soumetteur, optionnel
	CreatedAt    time.Time
	Images       []InboxImage
}

// DecodeInboxSubmission valide et décode un document de report_inbox.
// description, x et y sont obligatoires; le reste est optionnel.
func DecodeInboxSubmission(doc Document) (InboxSubmission, error) {
	sub := InboxSubmission{DocID: doc.ID}

	desc, ok := asString(doc.Data["description"])
	if !ok || desc == "" {
		return sub, &DecodeError{CollectionReportInbox, doc.ID, "description", "manquant"}
	}
	sub.Description = desc

	x, ok := asFloat(doc.Data["x"])
	if !ok {
		return sub, &DecodeError{CollectionReportInbox, doc.ID, "x", "manquant ou non numérique"}
	}
	y, ok := asFloat(doc.Data["y"])
	if !ok {
		return sub, &DecodeError{CollectionReportInbox, doc.ID, "y", "manquant ou non numérique"}
	}
	sub.X, sub.Y = x, y

	sub.Localisation, _ = asString(doc.Data["localisation"])
	sub.UserToken, _ = asString(doc.Data["userToken"])

	if raw, ok := asString(doc.Data["createdAt"]); ok && raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return sub, &DecodeError{CollectionReportInbox, doc.ID, "createdAt", "format invalide: " + err.Error()}
		}
		sub.CreatedAt = ts
	}

	if rawImages, present := doc.Data["images"]; present {
		list, ok := rawImages.([]any)
		if !ok {
			return sub, &DecodeError{CollectionReportInbox, doc.ID, "images", "doit être une liste"}
		}
		for i, entry := range list {
			m, ok := entry.(map[string]any)
			if !ok {
				return sub, &DecodeError{CollectionReportInbox, doc.ID, fmt.Sprintf("images[%d]", i), "doit être un objet"}
			}
			img := InboxImage{}
			img.OnlinePath, _ = asString(m["online_path"])
			img.FileName, _ = asString(m["file_name"])
			sub.Images = append(sub.Images, img)
		}
	}
	return sub, nil
}

// PublishedReport est la projection aplatie d'un signalement dans report_list.
type PublishedReport struct {
	ID            uint
	UserID        uint
	UserToken     string
	X             float64
	Y             float64
	Localisation  string
	Description   string
	CreatedAt     time.Time
	StatusLibelle string
	Valeur        int
	PhotoURLs     []string
}

func (r PublishedReport) ToMap() map[string]any {
	return map[string]any{
		"id":            int64(r.ID),
		"userId":        int64(r.UserID),
		"userToken":     r.UserToken,
		"x":             r.X,
		"y":             r.Y,
		"localisation":  r.Localisation,
		"description":   r.Description,
		"createdAt":     r.CreatedAt.UTC().Format(time.RFC3339),
		"statusLibelle": r.StatusLibelle,
		"valeur":        r.Valeur,
		"photoUrls":     append([]string(nil), r.PhotoURLs...),
	}
}

// PublishedWorkItem est la projection aplatie d'un problème dans workitem_list.
type PublishedWorkItem struct {
	ID             uint
	SignalementID  uint
	UserID         uint
	UserEmail      string
	Surface        float64
	BudgetEstime   float64
	Niveau         int
	EntrepriseID   uint
	EntrepriseName string
	X              float64
	Y              float64
	Localisation   string
	Description    string
	CreatedAt      time.Time
	StatusLibelle  string
	Valeur         int
	PhotoURLs      []string
}

func (w PublishedWorkItem) ToMap() map[string]any {
	return map[string]any{
		"id":             int64(w.ID),
		"signalementId":  int64(w.SignalementID),
		"userId":         int64(w.UserID),
		"userEmail":      w.UserEmail,
		"surface":        w.Surface,
		"budgetEstime":   w.BudgetEstime,
		"niveau":         w.Niveau,
		"entrepriseId":   int64(w.EntrepriseID),
		"entrepriseName": w.EntrepriseName,
		"x":              w.X,
		"y":              w.Y,
		"localisation":   w.Localisation,
		"description":    w.Description,
		"createdAt":      w.CreatedAt.UTC().Format(time.RFC3339),
		"statusLibelle":  w.StatusLibelle,
		"valeur":         w.Valeur,
		"photoUrls":      append([]string(nil), w.PhotoURLs...),
	}
}

// TokenRecord est le document push_tokens/{providerUID}.
type TokenRecord struct {
	Token       string
	LocalUserID uint
	UpdatedAt   time.Time
}

func (t TokenRecord) ToMap() map[string]any {
	return map[string]any{
		"token":       t.Token,
		"localUserId": int64(t.LocalUserID),
		"updatedAt":   t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// DecodeTokenRecord lit un document push_tokens. Seul le champ token est
// obligatoire (il peut être vide tant que le mobile ne l'a pas renseigné).
func DecodeTokenRecord(doc Document) (TokenRecord, error) {
	rec := TokenRecord{}
	raw, present := doc.Data["token"]
	if !present {
		return rec, &DecodeError{CollectionPushTokens, doc.ID, "token", "manquant"}
	}
	tok, ok := asString(raw)
	if !ok {
		return rec, &DecodeError{CollectionPushTokens, doc.ID, "token", "doit être une chaîne"}
	}
	rec.Token = tok
	if v, ok := asFloat(doc.Data["localUserId"]); ok {
		rec.LocalUserID = uint(v)
	}
	return rec, nil
}

func asString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	default:
		return 0, false
	}
}
