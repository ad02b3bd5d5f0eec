package billing

import "github.com/soe-platform/workload-api/internal/models"

// ResolveLevel maps a professor's qualifications to a pay tier. The priority
// order is fixed and the first match wins: bilingual, doctorate, two or more
// masters, exactly one masters, base degree. Total over every input.
func ResolveLevel(bilingual, hasDoctorate bool, masters int) models.LevelCode {
	switch {
	case bilingual:
		return models.LevelBilingual
	case hasDoctorate:
		return models.LevelDoctor
	case masters >= 2:
		return models.LevelMasters2
	case masters == 1:
		return models.LevelMasters1
	default:
		return models.LevelGrado
	}
}

// LevelFor resolves the tier of the professor attached to a class record.
func LevelFor(r models.ClassRecordDetail) models.LevelCode {
	return ResolveLevel(r.Bilingual, r.DoctorateCount > 0, r.MastersCount)
}
