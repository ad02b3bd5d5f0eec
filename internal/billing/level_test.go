package billing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soe-platform/workload-api/internal/models"
)

func TestResolveLevelPriority(t *testing.T) {
	cases := []struct {
		name      string
		bilingual bool
		doctorate bool
		masters   int
		want      models.LevelCode
	}{
		{"bilingual dominates everything", true, true, 5, models.LevelBilingual},
		{"bilingual without other degrees", true, false, 0, models.LevelBilingual},
		{"doctorate beats masters", false, true, 3, models.LevelDoctor},
		{"two masters", false, false, 2, models.LevelMasters2},
		{"many masters still M2", false, false, 4, models.LevelMasters2},
		{"one masters", false, false, 1, models.LevelMasters1},
		{"no postgraduate degrees", false, false, 0, models.LevelGrado},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ResolveLevel(tc.bilingual, tc.doctorate, tc.masters))
		})
	}
}

func TestResolveLevelIsTotalAndExclusive(t *testing.T) {
	for _, bilingual := range []bool{false, true} {
		for _, doctorate := range []bool{false, true} {
			for masters := 0; masters <= 3; masters++ {
				code := ResolveLevel(bilingual, doctorate, masters)
				require.True(t, code.Valid(), "input (%v,%v,%d) produced %q", bilingual, doctorate, masters, code)
				if bilingual {
					require.Equal(t, models.LevelBilingual, code)
				}
			}
		}
	}
}

func TestLevelForUsesProfessorQualifications(t *testing.T) {
	record := models.ClassRecordDetail{Bilingual: false, DoctorateCount: 1, MastersCount: 2}
	require.Equal(t, models.LevelDoctor, LevelFor(record))

	record = models.ClassRecordDetail{Bilingual: false, DoctorateCount: 0, MastersCount: 1}
	require.Equal(t, models.LevelMasters1, LevelFor(record))
}
