package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/drstein77/fitstore/internal/catalog"
	"github.com/drstein77/fitstore/internal/models"
)

var (
	errQuit  = errors.New("quit")
	errHelp  = errors.New("help")
	errEmpty = errors.New("empty")
)

const helpText = `comandos:
  dashboard | products | cart | clients | orders   cambiar de vista
  category <all|id>                                filtrar por categoría
  search [texto]                                   buscar por nombre
  add <producto>                                   agregar al carrito
  qty <producto> <cantidad>                        fijar cantidad (0 quita)
  remove <producto>                                quitar del carrito
  clear                                            vaciar carrito
  submit <cliente>                                 confirmar pedido
  refresh                                          recargar datos
  delete product|client|order <id>
  new product <nombre>;<descripción>;<precio>;<stock>;<categoría>[;<imagen>]
  new client <nombre>;<email>;<teléfono>;<dirección>
  set product <id> nombre|descripcion|precio|stock|categoria|imagen <valor>
  set client <id> nombre|email|telefono|direccion <valor>
  help | quit`

// ParseCommand turns one input line into a message.
func ParseCommand(line string) (Msg, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, errEmpty
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]

	if v, ok := ParseView(verb); ok {
		return ShowView{View: v}, nil
	}

	switch verb {
	case "quit", "exit":
		return nil, errQuit
	case "help", "?":
		return nil, errHelp
	case "category":
		if len(args) != 1 {
			return nil, fmt.Errorf("uso: category <all|id>")
		}
		sel, err := catalog.ParseSelection(args[0])
		if err != nil {
			return nil, fmt.Errorf("categoría inválida %q", args[0])
		}
		return SelectCategory{Category: sel}, nil
	case "search":
		return Search{Text: strings.Join(args, " ")}, nil
	case "add":
		id, err := intArg(args, 0, "producto")
		if err != nil {
			return nil, err
		}
		return AddToCart{ProductID: id}, nil
	case "qty":
		id, err := intArg(args, 0, "producto")
		if err != nil {
			return nil, err
		}
		q, err := intArg(args, 1, "cantidad")
		if err != nil {
			return nil, err
		}
		return SetQuantity{ProductID: id, Quantity: q}, nil
	case "remove":
		id, err := intArg(args, 0, "producto")
		if err != nil {
			return nil, err
		}
		return SetQuantity{ProductID: id, Quantity: 0}, nil
	case "clear":
		return ClearCart{}, nil
	case "submit":
		if len(args) == 0 {
			return SubmitOrder{}, nil
		}
		id, err := intArg(args, 0, "cliente")
		if err != nil {
			return nil, err
		}
		return SubmitOrder{ClientID: id}, nil
	case "refresh":
		return Refresh{Collections: AllCollections}, nil
	case "delete":
		return parseDelete(args)
	case "new":
		return parseNew(args, line)
	case "set":
		return parseSet(args, line)
	}
	return nil, fmt.Errorf("comando desconocido %q, escriba help", verb)
}

func intArg(args []string, i int, name string) (int, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("falta %s", name)
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("%s inválido %q", name, args[i])
	}
	return n, nil
}

func parseDelete(args []string) (Msg, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("uso: delete product|client|order <id>")
	}
	id, err := intArg(args, 1, "id")
	if err != nil {
		return nil, err
	}
	switch args[0] {
	case "product":
		return DeleteProduct{ID: id}, nil
	case "client":
		return DeleteClient{ID: id}, nil
	case "order":
		return DeleteOrder{ID: id}, nil
	}
	return nil, fmt.Errorf("no se puede eliminar %q", args[0])
}

func parseNew(args []string, line string) (Msg, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("uso: new product|client <campos separados por ;>")
	}
	kind := args[0]
	parts := strings.Split(remainder(line, 2), ";")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch kind {
	case "product":
		if len(parts) != 5 && len(parts) != 6 {
			return nil, fmt.Errorf("uso: new product <nombre>;<descripción>;<precio>;<stock>;<categoría>[;<imagen>]")
		}
		price, err := decimal.NewFromString(parts[2])
		if err != nil {
			return nil, fmt.Errorf("precio inválido %q", parts[2])
		}
		stock, err := strconv.Atoi(parts[3])
		if err != nil {
			return nil, fmt.Errorf("stock inválido %q", parts[3])
		}
		category, err := strconv.Atoi(parts[4])
		if err != nil {
			return nil, fmt.Errorf("categoría inválida %q", parts[4])
		}
		in := models.ProductInput{
			Name: &parts[0], Description: &parts[1], Price: &price, Stock: &stock, CategoryID: &category,
		}
		if len(parts) == 6 && parts[5] != "" {
			in.ImageURL = &parts[5]
		}
		return SaveProduct{Input: in}, nil
	case "client":
		if len(parts) != 4 {
			return nil, fmt.Errorf("uso: new client <nombre>;<email>;<teléfono>;<dirección>")
		}
		return SaveClient{Input: models.ClientInput{
			Name: &parts[0], Email: &parts[1], Phone: &parts[2], Address: &parts[3],
		}}, nil
	}
	return nil, fmt.Errorf("no se puede crear %q", kind)
}

// remainder returns line without its first n fields, inner spacing intact.
func remainder(line string, n int) string {
	rest := line
	for i := 0; i < n; i++ {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		end := strings.IndexFunc(rest, unicode.IsSpace)
		if end < 0 {
			return ""
		}
		rest = rest[end:]
	}
	return strings.TrimSpace(rest)
}

func parseSet(args []string, line string) (Msg, error) {
	if len(args) < 4 {
		return nil, fmt.Errorf("uso: set product|client <id> <campo> <valor>")
	}
	id, err := intArg(args, 1, "id")
	if err != nil {
		return nil, err
	}
	field, value := args[2], remainder(line, 4)

	switch args[0] {
	case "product":
		var in models.ProductInput
		switch field {
		case "nombre":
			in.Name = &value
		case "descripcion":
			in.Description = &value
		case "imagen":
			in.ImageURL = &value
		case "precio":
			price, err := decimal.NewFromString(value)
			if err != nil {
				return nil, fmt.Errorf("precio inválido %q", value)
			}
			in.Price = &price
		case "stock", "categoria":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("%s inválido %q", field, value)
			}
			if field == "stock" {
				in.Stock = &n
			} else {
				in.CategoryID = &n
			}
		default:
			return nil, fmt.Errorf("campo de producto desconocido %q", field)
		}
		return SaveProduct{ID: id, Input: in}, nil
	case "client":
		var in models.ClientInput
		switch field {
		case "nombre":
			in.Name = &value
		case "email":
			in.Email = &value
		case "telefono":
			in.Phone = &value
		case "direccion":
			in.Address = &value
		default:
			return nil, fmt.Errorf("campo de cliente desconocido %q", field)
		}
		return SaveClient{ID: id, Input: in}, nil
	}
	return nil, fmt.Errorf("no se puede editar %q", args[0])
}
