package entity

import (
	"errors"
	"fmt"

	"github.com/latoulicious/arise-companion/pkg/apperror"
	"github.com/latoulicious/arise-companion/pkg/database"
)

const (
	msgNotFound    = "Élément introuvable, veuillez rafraîchir la page"
	msgUniqueCheck = "Impossible de vérifier l'unicité du nom"
	msgReferential = "Suppression impossible : des éléments dépendants existent encore, supprimez-les d'abord"
	msgBadRef      = "Référence invalide : l'élément lié n'existe pas"
)

func duplicateError(name string, cause error) error {
	return apperror.Wrap(apperror.KindDuplicate, cause,
		fmt.Sprintf("Le nom « %s » est déjà utilisé, veuillez en choisir un autre", name))
}

// classify turns a backend error from a write into a user-facing apperror.
// Errors that are already classified pass through.
func classify(err error, name string, deleting bool) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case database.IsNotFound(err):
		return apperror.Wrap(apperror.KindNotFound, err, msgNotFound)
	case database.IsDuplicate(err):
		return duplicateError(name, err)
	case database.IsForeignKey(err):
		if deleting {
			return apperror.Wrap(apperror.KindReferential, err, msgReferential)
		}
		return apperror.Wrap(apperror.KindReferential, err, msgBadRef)
	default:
		return apperror.Unknown(err)
	}
}
