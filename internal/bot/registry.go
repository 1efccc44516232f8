// registry.go — реестр плагинов. Индексирует команды и алиасы,
// отвергает дубли при регистрации, отдаёт плагин по имени команды.
package bot

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/whatsapp-bot/internal/common"
	"serotonyl.ru/whatsapp-bot/internal/plugin"
)

// route — куда ведёт команда: плагин + её основное имя.
type route struct {
	plugin  *plugin.Plugin
	command string
}

// Registry — реестр загруженных плагинов.
type Registry struct {
	plugins []*plugin.Plugin
	routes  map[string]route // lowercase команда/алиас → маршрут
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{routes: make(map[string]route)}
}

// Register добавляет плагин. Команда или алиас, уже занятые другим
// плагином, — ошибка конфигурации, бот с ней не стартует.
func (r *Registry) Register(p *plugin.Plugin) error {
	if p.Name == "" || p.Run == nil {
		return fmt.Errorf("плагин без имени или без Run")
	}

	for _, cmd := range p.Commands {
		key := strings.ToLower(cmd)
		if prev, ok := r.routes[key]; ok {
			return fmt.Errorf("%w: %q (%s и %s)",
				common.ErrDuplicateCommand, key, prev.plugin.Name, p.Name)
		}
		r.routes[key] = route{plugin: p, command: key}
	}
	for alias, cmd := range p.Aliases {
		key := strings.ToLower(alias)
		if prev, ok := r.routes[key]; ok {
			return fmt.Errorf("%w: %q (%s и %s)",
				common.ErrDuplicateCommand, key, prev.plugin.Name, p.Name)
		}
		r.routes[key] = route{plugin: p, command: strings.ToLower(cmd)}
	}

	r.plugins = append(r.plugins, p)
	log.WithFields(log.Fields{
		"plugin":   p.Name,
		"version":  p.Version,
		"commands": p.Commands,
	}).Info("Плагин зарегистрирован")
	return nil
}

// Resolve возвращает плагин и основное имя команды по введённому
// слову (команда или алиас, без учёта регистра).
func (r *Registry) Resolve(word string) (*plugin.Plugin, string, bool) {
	rt, ok := r.routes[strings.ToLower(word)]
	if !ok {
		return nil, "", false
	}
	return rt.plugin, rt.command, true
}

// Plugins возвращает все плагины в порядке регистрации.
func (r *Registry) Plugins() []*plugin.Plugin {
	return r.plugins
}

// FreeTextPlugins возвращает плагины с хуком свободного текста,
// в порядке регистрации.
func (r *Registry) FreeTextPlugins() []*plugin.Plugin {
	var out []*plugin.Plugin
	for _, p := range r.plugins {
		if p.FreeText != nil {
			out = append(out, p)
		}
	}
	return out
}
