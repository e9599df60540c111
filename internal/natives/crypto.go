package natives

import (
	"golang.org/x/crypto/bcrypt"

	"ember/internal/value"
	"ember/internal/vm"
)

func registerCrypto(v *vm.VM) {
	heap := v.Heap()

	v.DefineNative("hash_password", func(args []value.Value) (value.Value, error) {
		plain, err := argString(args, 0, "hash_password")
		if err != nil {
			return value.Nil(), err
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
		if err != nil {
			return value.Nil(), err
		}
		return value.NewString(heap, string(hashed)), nil
	})

	v.DefineNative("check_password", func(args []value.Value) (value.Value, error) {
		plain, err := argString(args, 0, "check_password")
		if err != nil {
			return value.Nil(), err
		}
		hashed, err := argString(args, 1, "check_password")
		if err != nil {
			return value.Nil(), err
		}
		err = bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
		return value.Bool(err == nil), nil
	})
}
