package reader

import (
	"fmt"

	"github.com/carbocation/exprharmony"
	"github.com/carbocation/pfx"
	"github.com/spf13/viper"
)

// Layout locates the source files. Folders may be local, ~/ prefixed or
// gs:// paths.
type Layout struct {
	CellLineFolder      string `mapstructure:"cell_line_folder"`
	CellPassportFolder  string `mapstructure:"cell_passport_folder"`
	TumorFolder         string `mapstructure:"tumor_folder"`
	PDXFolder           string `mapstructure:"pdx_folder"`
	LookupFolder        string `mapstructure:"lookup_folder"`
	GeneCharacteristics string `mapstructure:"gene_characteristics"`
}

// DefaultLayout is the folder structure the download scripts produce,
// relative to the working directory.
func DefaultLayout() Layout {
	return Layout{
		CellLineFolder:      "../data/cell_line/",
		CellPassportFolder:  "../data/cell_line/",
		TumorFolder:         "../data/tumor/",
		PDXFolder:           "../data/pdx/",
		LookupFolder:        "../data/lookup/",
		GeneCharacteristics: "../data/cell_line/pybiomart_gene_status.csv",
	}
}

// LoadLayout reads a YAML (or any format viper understands) layout file on
// top of DefaultLayout. Keys may also be set through EXPRHARMONY_*
// environment variables. An empty configPath yields the defaults plus
// environment overrides.
func LoadLayout(configPath string) (Layout, error) {
	def := DefaultLayout()

	v := viper.New()
	v.SetDefault("cell_line_folder", def.CellLineFolder)
	v.SetDefault("cell_passport_folder", def.CellPassportFolder)
	v.SetDefault("tumor_folder", def.TumorFolder)
	v.SetDefault("pdx_folder", def.PDXFolder)
	v.SetDefault("lookup_folder", def.LookupFolder)
	v.SetDefault("gene_characteristics", def.GeneCharacteristics)

	v.SetEnvPrefix("exprharmony")
	v.AutomaticEnv()

	if configPath != "" {
		expanded, err := exprharmony.ExpandHome(configPath)
		if err != nil {
			return def, err
		}
		v.SetConfigFile(expanded)
		if err := v.ReadInConfig(); err != nil {
			return def, pfx.Err(fmt.Errorf("%s: %w", configPath, err))
		}
	}

	out := Layout{}
	if err := v.Unmarshal(&out); err != nil {
		return def, pfx.Err(err)
	}

	return out, nil
}

func (l Layout) GeneLookupFile() string {
	return exprharmony.JoinPath(l.LookupFolder, "gene_status.csv")
}

func (l Layout) CellLineTypesFile() string {
	return exprharmony.JoinPath(l.CellLineFolder, "cancer_type.csv")
}

func (l Layout) CellLineCountFile() string {
	return exprharmony.JoinPath(l.CellLineFolder, "rnaseq_readcounts_TCGA.RDS")
}

func (l Layout) CellLineFPKMFile() string {
	return exprharmony.JoinPath(l.CellLineFolder, "rnaseq_fpkm_protein_coding.csv")
}

func (l Layout) CellPassportCountFile() string {
	return exprharmony.JoinPath(l.CellPassportFolder, "rnaseq_latest.csv")
}

func (l Layout) CellPassportGeneFile() string {
	return exprharmony.JoinPath(l.CellPassportFolder, "gene_identifiers_latest.csv")
}

func (l Layout) CellPassportModelFile() string {
	return exprharmony.JoinPath(l.CellPassportFolder, "model_list_latest.csv")
}

// TumorFile is the NetCDF file of one TCGA cohort. dataType is fpkm or count.
func (l Layout) TumorFile(dataType, tissue string) string {
	return exprharmony.JoinPath(l.TumorFolder, fmt.Sprintf("%s_%s_netcdf", dataType, tissue))
}

func (l Layout) BiospecimenFile(tissue string) string {
	return exprharmony.JoinPath(l.TumorFolder, fmt.Sprintf("biospec_%s", tissue))
}

func (l Layout) PDXFile(tissue string) string {
	return exprharmony.JoinPath(l.PDXFolder, fmt.Sprintf("pdx_%s_TCGA_index_fpkm.csv", tissue))
}
