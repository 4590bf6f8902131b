package validator

import (
	stderrors "errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/voxel-density-service/internal/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// в ошибках используем имена полей из json-тегов
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = validate.RegisterValidation("preset", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		return v == "" || domain.IsValidPreset(v)
	})
	_ = validate.RegisterValidation("render_mode", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		return v == "" || domain.IsValidRenderMode(v)
	})
}

// Validate - валидация структуры
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// Fields раскладывает ошибку валидации по полям: "options.voxel_size" -> "gt=0".
// Для прочих ошибок возвращает nil.
func Fields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		// первый сегмент - имя корневой структуры
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out[ns] = rule
	}
	return out
}
